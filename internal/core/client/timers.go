package client

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-pcp/pkg/types"
)

// rearm 根据最近的 deadline 重置定时器
func (w *Worker) rearm(timer *clock.Timer) {
	next := w.nextDeadline()

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(next)
}

// nextDeadline 返回距最近一次定时动作的时长
func (w *Worker) nextDeadline() time.Duration {
	now := w.clk.Now()
	next := idleTick

	for _, m := range w.mappings {
		if m.deadline.IsZero() {
			continue
		}
		d := m.deadline.Sub(now)
		if d < 0 {
			d = 0
		}
		if d < next {
			next = d
		}
	}

	return next
}

// handleTick 执行所有已到期的定时动作
func (w *Worker) handleTick() {
	now := w.clk.Now()

	for _, m := range w.mappings {
		if m.deadline.IsZero() || m.deadline.After(now) {
			continue
		}

		switch {
		case m.pending:
			w.retransmit(m)

		case now.Before(m.expiry):
			// 续期时刻到
			w.renew(m)

		default:
			// 租期结束且无续期安排
			log.Info("映射租期结束", "id", m.id)
			w.finishMapping(m, types.StateExpired)
		}
	}
}

// retransmit 重传在途请求（指数退避）
func (w *Worker) retransmit(m *mapping) {
	if m.attempt >= maxRetries {
		log.Warn("映射请求超时", "id", m.id, "attempts", m.attempt)

		err := types.NewSocketError(fmt.Errorf("request timed out after %d attempts", m.attempt))
		if m.reply != nil {
			w.failRequest(m, err)
		} else {
			w.postErr(err)
			w.finishMapping(m, types.StateFailed)
		}
		return
	}

	m.attempt++
	m.rt *= 2
	if m.rt > maxRT {
		m.rt = maxRT
	}
	m.deadline = w.clk.Now().Add(m.rt)

	log.Debug("重传映射请求", "id", m.id, "attempt", m.attempt, "rt", m.rt)

	if err := w.resend(m, m.requestedLifetime()); err != nil {
		serr := types.NewSocketError(err)
		if m.reply != nil {
			w.failRequest(m, serr)
		} else {
			w.postErr(serr)
			w.finishMapping(m, types.StateFailed)
		}
	}
}

// resend 重新发出请求报文（不重置重传进度）
func (w *Worker) resend(m *mapping, lifetime uint32) error {
	pending, attempt, rt, started, deadline := m.pending, m.attempt, m.rt, m.started, m.deadline
	err := w.sendRequest(m, lifetime)
	// sendRequest 会重置进度，恢复本轮的退避状态
	m.pending, m.attempt, m.rt, m.started, m.deadline = pending, attempt, rt, started, deadline
	return err
}

// renew 发起一轮续期
func (w *Worker) renew(m *mapping) {
	w.setState(m, types.StateRenewing)

	if m.viaFallback {
		w.fallbackMap(m, false)
		return
	}

	log.Debug("续期映射", "id", m.id, "renewals", m.renewals)

	if err := w.sendRequest(m, m.requestedLifetime()); err != nil {
		w.postErr(types.NewSocketError(err))
		w.finishMapping(m, types.StateFailed)
	}
}

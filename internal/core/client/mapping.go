package client

import (
	"net/netip"
	"time"

	"github.com/dep2p/go-pcp/internal/core/wire"
	"github.com/dep2p/go-pcp/pkg/types"
)

// mapping worker 侧的单个映射记录
type mapping struct {
	id     types.MappingID
	nonce  [12]byte
	opcode wire.Opcode
	desc   types.Map
	kind   types.RequestType

	state  *types.AtomicState
	reply  chan types.RequestReply // 回复后置 nil
	alerts chan types.Alert        // 关闭后置 nil

	// 在途请求的重传进度
	pending  bool
	attempt  int
	rt       time.Duration
	started  time.Time // 本轮请求首次发出时刻
	deadline time.Time // 下一次定时动作时刻（重传 / 续期 / 过期）

	// 授予结果
	granted      time.Duration
	expiry       time.Time
	externalPort uint16
	externalAddr netip.Addr
	renewals     int
	viaFallback  bool
}

// requestedLifetime 返回描述符上的期望租期（秒）
func (m *mapping) requestedLifetime() uint32 {
	return uint32(m.desc.MapLifetime() / time.Second)
}

// setState 写状态单元并发出告警
//
// 终态之后不再变化（单调性由此处集中保证）。
func (w *Worker) setState(m *mapping, s types.State) {
	if m.state.Load().Terminal() {
		return
	}
	m.state.Store(s)
	w.alert(m, s)
}

// alert 向映射的私有告警通道投递状态变迁
//
// 告警通道有界；消费方长期不取时丢弃并告警日志，绝不阻塞事件循环。
func (w *Worker) alert(m *mapping, s types.State) {
	if m.alerts == nil {
		return
	}
	select {
	case m.alerts <- types.Alert{ID: m.id, State: s}:
	default:
		log.Warn("告警通道已满，丢弃状态变迁", "id", m.id, "state", s)
	}
}

// reply 发送一次性回复（每个映射至多一次）
func (w *Worker) reply(m *mapping, ok bool) {
	if m.reply == nil {
		return
	}
	m.reply <- types.RequestReply{ID: m.id, OK: ok}
	m.reply = nil
}

// finishMapping 以终态结束映射并移除记录
func (w *Worker) finishMapping(m *mapping, s types.State) {
	w.setState(m, s)
	if m.alerts != nil {
		close(m.alerts)
		m.alerts = nil
	}
	delete(w.mappings, m.id)
	delete(w.byNonce, m.nonce)
}

// scheduleAfterGrant 授予（或续期成功）后安排下一次定时动作
func (w *Worker) scheduleAfterGrant(m *mapping) {
	m.pending = false
	now := w.clk.Now()
	m.expiry = now.Add(m.granted)

	switch m.kind.Kind() {
	case types.RequestOnce:
		m.deadline = m.expiry

	case types.RequestRepeat:
		if m.renewals < m.kind.Count() {
			m.deadline = now.Add(m.granted / 2)
		} else {
			m.deadline = m.expiry
		}

	case types.RequestKeepAlive:
		m.deadline = now.Add(m.granted / 2)
	}
}

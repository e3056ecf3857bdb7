package client

import (
	"fmt"

	"github.com/dep2p/go-pcp/internal/core/wire"
	"github.com/dep2p/go-pcp/pkg/types"
)

// ResultError 网关以非成功结果码拒绝请求
type ResultError struct {
	Code wire.ResultCode
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("gateway refused: %s", e.Code)
}

// handlePacket 处理一个收到的数据报
func (w *Worker) handlePacket(pkt packet) {
	resp, perr := wire.ParseResponse(pkt.data)
	if perr != nil {
		log.Debug("收到无法解析的数据报", "from", pkt.from, "err", perr)
		w.postErr(types.NewParsingError(perr))
		return
	}

	// NAT-PMP 网关的版本 0 应答
	if resp.Result == wire.ResultUnsuppVersion {
		w.handleUnsuppVersion()
		return
	}

	w.observeEpoch(resp.Epoch)

	if resp.Opcode == wire.OpAnnounce {
		return
	}

	id, ok := w.byNonce[resp.Nonce]
	if !ok {
		// 迟到的重传应答或不相关报文
		log.Debug("未知 nonce 的响应，忽略", "opcode", resp.Opcode.String())
		return
	}
	m := w.mappings[id]

	if !resp.Result.Success() {
		w.handleRefusal(m, resp.Result)
		return
	}

	w.handleGrant(m, resp)
}

// handleGrant 处理成功响应（首次授予或续期确认）
func (w *Worker) handleGrant(m *mapping, resp *wire.Response) {
	if !m.pending {
		// 已确认过的重传应答
		return
	}

	initial := m.reply != nil
	if !initial {
		m.renewals++
	}

	m.granted = secondsToDuration(resp.Lifetime)
	m.externalPort = resp.ExternalPort
	m.externalAddr = resp.ExternalAddr

	w.reply(m, true)
	w.setState(m, types.StateGranted)
	w.scheduleAfterGrant(m)

	log.Info("映射已授予",
		"id", m.id,
		"external", fmt.Sprintf("%s:%d", m.externalAddr, m.externalPort),
		"lifetime", m.granted,
		"renewals", m.renewals)
}

// handleRefusal 处理非成功结果码
func (w *Worker) handleRefusal(m *mapping, code wire.ResultCode) {
	if !m.pending {
		return
	}

	log.Warn("网关拒绝映射请求", "id", m.id, "result", code.String())

	err := types.NewSocketError(&ResultError{Code: code})
	if m.reply != nil {
		w.failRequest(m, err)
		return
	}

	// 续期被拒：映射失效
	w.postErr(err)
	w.finishMapping(m, types.StateFailed)
}

// handleUnsuppVersion 处理 UNSUPP_VERSION / NAT-PMP 版本 0 应答
func (w *Worker) handleUnsuppVersion() {
	if w.fallback != nil {
		w.enableFallback()
		return
	}

	log.Warn("网关不支持 PCP 且未启用 NAT-PMP 回退")
	for _, m := range w.mappings {
		if m.pending {
			m.pending = false
			err := types.NewSocketError(&ResultError{Code: wire.ResultUnsuppVersion})
			if m.reply != nil {
				w.failRequest(m, err)
			} else {
				w.postErr(err)
				w.finishMapping(m, types.StateFailed)
			}
		}
	}
}

// observeEpoch 跟踪网关纪元，检测网关重启
//
// 纪元回退说明网关丢失了全部映射状态，立即续期所有存活映射
// （RFC 6887 §8.5 的简化判据）。
func (w *Worker) observeEpoch(epoch uint32) {
	if !w.epochValid {
		w.epoch = epoch
		w.epochValid = true
		return
	}

	if epoch >= w.epoch {
		w.epoch = epoch
		return
	}

	log.Info("网关纪元回退，重建所有映射", "old", w.epoch, "new", epoch)
	w.epoch = epoch

	for _, m := range w.mappings {
		if m.pending || m.viaFallback || m.state.Load() != types.StateGranted {
			continue
		}
		w.renew(m)
	}
}

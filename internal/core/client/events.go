package client

import (
	"fmt"

	"github.com/dep2p/go-pcp/internal/core/compat"
	"github.com/dep2p/go-pcp/internal/core/wire"
	"github.com/dep2p/go-pcp/pkg/types"
)

// handleEvent 处理一个来自句柄的事件
func (w *Worker) handleEvent(ev types.Event) {
	switch ev.Kind {
	case types.EventInboundMap, types.EventOutboundMap:
		w.handleMapRequest(ev)

	case types.EventRelease:
		w.handleRelease(ev.ID)

	case types.EventShutdown:
		w.shutdown()

	default:
		log.Warn("未知事件变体", "kind", int(ev.Kind))
	}
}

// handleMapRequest 处理映射请求事件
func (w *Worker) handleMapRequest(ev types.Event) {
	id := types.NewMappingID()

	m := &mapping{
		id:     id,
		nonce:  id.Nonce(),
		desc:   ev.Map,
		kind:   ev.RequestType,
		state:  ev.State,
		reply:  ev.Reply,
		alerts: ev.Alerts,
	}
	if ev.Kind == types.EventInboundMap {
		m.opcode = wire.OpMap
	} else {
		m.opcode = wire.OpPeer
	}

	w.mappings[id] = m
	w.byNonce[m.nonce] = id

	log.Debug("收到映射请求",
		"id", id,
		"opcode", m.opcode.String(),
		"proto", m.desc.Proto().String(),
		"port", m.desc.Port(),
		"kind", m.kind.String())

	if w.usingFallback {
		w.fallbackMap(m, true)
		return
	}

	if err := w.sendRequest(m, m.requestedLifetime()); err != nil {
		w.failRequest(m, types.NewSocketError(err))
	}
}

// handleRelease 处理来自 MapHandle 的释放命令
//
// 未知标识（重复释放、或请求尚未被回复）直接忽略。
func (w *Worker) handleRelease(id types.MappingID) {
	m, ok := w.mappings[id]
	if !ok || m.reply != nil {
		return
	}

	log.Debug("释放映射", "id", id)
	w.releaseMapping(m)
	w.finishMapping(m, types.StateReleased)
}

// releaseMapping 向网关发出删除映射（租期 0），尽力而为
func (w *Worker) releaseMapping(m *mapping) {
	if m.state.Load().Terminal() {
		return
	}

	if m.viaFallback {
		if err := w.fallback.Unmap(m.desc.Proto(), m.desc.Port()); err != nil {
			log.Debug("NAT-PMP 释放失败", "id", m.id, "err", err)
		}
		return
	}

	if err := w.sendRequest(m, 0); err != nil {
		log.Debug("释放请求发送失败", "id", m.id, "err", err)
	}
}

// sendRequest 编码并发送映射请求，启动重传进度
func (w *Worker) sendRequest(m *mapping, lifetime uint32) error {
	req := &wire.Request{
		Opcode:       m.opcode,
		Lifetime:     lifetime,
		ClientAddr:   w.clientAddr,
		Nonce:        m.nonce,
		Protocol:     m.desc.Proto(),
		InternalPort: m.desc.Port(),
	}

	switch d := m.desc.(type) {
	case *types.InboundMap:
		req.SuggestedExternalPort = d.SuggestedExternalPort
		req.SuggestedExternalAddr = d.SuggestedExternalAddr
	case *types.OutboundMap:
		req.RemotePort = d.RemotePort
		req.RemoteAddr = d.RemoteAddr
	}

	if _, err := w.conn.WriteTo(req.Marshal(), w.gwAddr); err != nil {
		return fmt.Errorf("send %s request: %w", m.opcode, err)
	}

	// 租期 0（删除）不等响应，不进入重传
	if lifetime == 0 {
		return nil
	}

	now := w.clk.Now()
	m.pending = true
	m.attempt = 1
	m.rt = initialRT
	m.started = now
	m.deadline = now.Add(m.rt)

	return nil
}

// failRequest 让一个尚未回复的请求失败
//
// 错误先于否定回复投递（核心层的排序不变式）。
func (w *Worker) failRequest(m *mapping, err *types.Error) {
	w.postReqErr(err)
	w.reply(m, false)
	w.finishMapping(m, types.StateFailed)
}

// ════════════════════════════════════════════════════════════════════════════
//                              NAT-PMP 回退
// ════════════════════════════════════════════════════════════════════════════

// enableFallback 切换到 NAT-PMP 回退，并把所有在途映射重新驱动一遍
func (w *Worker) enableFallback() {
	if w.usingFallback {
		return
	}
	w.usingFallback = true
	log.Info("网关不支持 PCP，回退到 NAT-PMP")

	for _, m := range w.mappings {
		if m.pending {
			m.pending = false
			w.fallbackMap(m, m.reply != nil)
		}
	}
}

// fallbackMap 通过 NAT-PMP 建立或续期映射
//
// initial 为 true 表示这是首次请求（需要回复）。出站映射在 NAT-PMP
// 中不存在，按 Socket 错误上报。
func (w *Worker) fallbackMap(m *mapping, initial bool) {
	if m.opcode == wire.OpPeer {
		err := types.NewSocketError(compat.ErrOutboundUnsupported)
		if initial {
			w.failRequest(m, err)
		} else {
			w.postErr(err)
			w.finishMapping(m, types.StateFailed)
		}
		return
	}

	var suggested uint16
	if d, ok := m.desc.(*types.InboundMap); ok {
		suggested = d.SuggestedExternalPort
	}

	extPort, granted, err := w.fallback.Map(m.desc.Proto(), m.desc.Port(), suggested, m.desc.MapLifetime())
	if err != nil {
		serr := types.NewSocketError(err)
		if initial {
			w.failRequest(m, serr)
		} else {
			w.postErr(serr)
			w.finishMapping(m, types.StateFailed)
		}
		return
	}

	m.viaFallback = true
	m.externalPort = extPort
	m.granted = granted

	if !initial {
		m.renewals++
	}

	w.reply(m, true)
	w.setState(m, types.StateGranted)
	w.scheduleAfterGrant(m)
}

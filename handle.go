package pcp

import (
	"runtime"
	"sync"

	"github.com/dep2p/go-pcp/pkg/types"
)

// alertBuffer 单个映射告警通道的容量
//
// 生命周期变迁的总量很小，16 足以覆盖消费方短暂滞后。
const alertBuffer = 16

// Handle PCP 会话句柄
//
// 会话的唯一逻辑所有者：持有发往 worker 的事件发送端和错误通道的
// 接收端。可被多个 goroutine 并发使用；错误通道的消费（WaitErr/
// PollErr）按先到先得竞争。
type Handle struct {
	events chan types.Event
	errs   chan *types.Error
	quit   chan struct{}
	done   <-chan struct{}

	shutdownOnce sync.Once
}

// newHandle 构造会话句柄
//
// worker 由调用方另行启动（NewClient 或测试脚本）；done 在 worker
// 完全退出时关闭，让句柄在 worker 因致命 socket 错误自行终止后也能
// 立即失败，而不是挂在无人消费的通道上。
func newHandle(events chan types.Event, errs chan *types.Error, quit chan struct{}, done <-chan struct{}) *Handle {
	return &Handle{
		events: events,
		errs:   errs,
		quit:   quit,
		done:   done,
	}
}

// Request 发起映射请求并阻塞等待 worker 的唯一回复
//
// 入站/出站走同一协议，仅事件变体不同。成功返回包装（标识、状态单元、
// 事件发送端、私有告警流）的 MapHandle；worker 拒绝时从错误通道取回
// 权威原因（worker 保证该错误先于否定回复可用，不会死锁）；回复通道
// 被关闭（worker 已终止）时返回 Channel 错误。
func (h *Handle) Request(m Map, kind RequestType) (*MapHandle, error) {
	reply := make(chan types.RequestReply, 1)
	alerts := make(chan types.Alert, alertBuffer)
	state := types.NewAtomicState(types.StateRequested)

	ev := types.Event{
		Kind:        eventKindOf(m),
		Map:         m,
		RequestType: kind,
		State:       state,
		Reply:       reply,
		Alerts:      alerts,
	}

	select {
	case h.events <- ev:
	case <-h.quit:
		return nil, types.NewChannelError(nil)
	case <-h.done:
		return nil, types.NewChannelError(nil)
	}

	r, ok := h.awaitReply(reply)
	if !ok {
		// worker 已终止：回复通道被关闭，或事件落入无人消费的缓冲
		return nil, types.NewChannelError(nil)
	}
	if !r.OK {
		return nil, h.WaitErr()
	}

	mh := &MapHandle{
		id:     r.ID,
		state:  state,
		events: h.events,
		quit:   h.quit,
		alerts: alerts,
	}
	// MapHandle 被丢弃即向 worker 示意可以释放该映射
	runtime.SetFinalizer(mh, (*MapHandle).finalize)
	return mh, nil
}

// awaitReply 等待一次性回复，同时监听会话终止与 worker 退出
//
// 终止与回复竞态时已就绪的回复优先，保证授予不被无谓丢弃。
func (h *Handle) awaitReply(reply chan types.RequestReply) (types.RequestReply, bool) {
	select {
	case r, ok := <-reply:
		return r, ok
	case <-h.quit:
	case <-h.done:
	}

	select {
	case r, ok := <-reply:
		return r, ok
	default:
		return types.RequestReply{}, false
	}
}

// WaitErr 阻塞等待一个错误
//
// 错误通道被关闭（worker 已退出）时合成 Channel 错误返回，
// 永不无限阻塞。
func (h *Handle) WaitErr() error {
	err, ok := <-h.errs
	if !ok {
		return types.NewChannelError(nil)
	}
	return err
}

// PollErr 非阻塞探取一个错误
//
// 没有待取错误（或通道已关闭）时返回 nil。并发调用按先到先得
// 竞争同一批错误值，不重复、不丢失。
func (h *Handle) PollErr() error {
	select {
	case err, ok := <-h.errs:
		if !ok {
			return nil
		}
		return err
	default:
		return nil
	}
}

// Shutdown 终止会话
//
// 幂等、尽力而为：发送 Shutdown 事件（发送失败忽略）并关闭退出
// 信号。句柄被丢弃（终结器）走同一路径，因此忘记显式调用也不会
// 泄漏运行中的 worker；worker 把重复的终止信号当作空操作。
func (h *Handle) Shutdown() {
	h.shutdownOnce.Do(func() {
		select {
		case h.events <- types.Event{Kind: types.EventShutdown}:
		default:
		}
		close(h.quit)
	})
}

// eventKindOf 返回描述符对应的事件变体
func eventKindOf(m Map) types.EventKind {
	if _, ok := m.(*types.OutboundMap); ok {
		return types.EventOutboundMap
	}
	return types.EventInboundMap
}

package pcp

import (
	"runtime"
	"sync"

	"github.com/dep2p/go-pcp/pkg/types"
)

// MapHandle 单个已授予映射的句柄
//
// 包装映射标识、状态单元的共享引用、事件发送端（用于释放等关联的
// 后续命令）和私有告警流。仅在请求成功时由 Request 创建。
type MapHandle struct {
	id     types.MappingID
	state  *types.AtomicState
	events chan types.Event
	quit   chan struct{}
	alerts chan types.Alert

	releaseOnce sync.Once
}

// ID 返回映射标识
func (m *MapHandle) ID() MappingID {
	return m.id
}

// State 返回映射当前的生命周期状态
//
// 无锁读取，永不阻塞、永不失败。读者最多滞后一次待写入的更新。
func (m *MapHandle) State() State {
	return m.state.Load()
}

// Alerts 返回映射的告警流
//
// 状态变迁按 worker 发出顺序到达；映射进入终态或会话终止后通道
// 被关闭。取消/超时由调用方用 select 自行组合。
func (m *MapHandle) Alerts() <-chan Alert {
	return m.alerts
}

// WaitAlert 阻塞等待下一条告警
//
// 告警通道已关闭时返回 Channel 错误而非无限阻塞。
func (m *MapHandle) WaitAlert() (Alert, error) {
	alert, ok := <-m.alerts
	if !ok {
		return Alert{}, types.NewChannelError(nil)
	}
	return alert, nil
}

// PollAlert 非阻塞探取一条告警
func (m *MapHandle) PollAlert() (Alert, bool) {
	select {
	case alert, ok := <-m.alerts:
		if !ok {
			return Alert{}, false
		}
		return alert, true
	default:
		return Alert{}, false
	}
}

// Release 请求 worker 释放映射
//
// 幂等、尽力而为：会话已终止时静默成功。丢弃 MapHandle（终结器）
// 走同一路径。
func (m *MapHandle) Release() {
	m.releaseOnce.Do(func() {
		runtime.SetFinalizer(m, nil)
		select {
		case m.events <- types.Event{Kind: types.EventRelease, ID: m.id}:
		case <-m.quit:
		default:
		}
	})
}

// finalize 终结器入口
func (m *MapHandle) finalize() {
	m.Release()
}

// Package types 定义 go-pcp 的共享数据模型
//
// 包含映射生命周期状态、请求策略、映射描述符、事件与错误分类。
// 这些类型在应用侧句柄（根包）与后台 worker（internal/core/client）
// 之间共享，自身不做任何 I/O。
package types

import "sync/atomic"

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期状态
// ════════════════════════════════════════════════════════════════════════════

// State 映射的生命周期状态
//
// 应用侧观察到的单个映射的有限状态。状态转移是单调的：
//
//	Requested → Granted | Failed
//	Granted   → Renewing | Expired | Released
//	Renewing  → Granted | Expired | Failed | Released
//
// Expired、Released、Failed 为终态，进入终态后不再变化。
type State int32

const (
	// StateRequested 已请求（创建时设置，worker 回复前的初始状态）
	StateRequested State = iota

	// StateGranted 网关已授予映射
	StateGranted

	// StateRenewing 续期请求已发出，等待网关确认
	StateRenewing

	// StateExpired 租期结束且不再续期（终态）
	StateExpired

	// StateReleased 映射已显式释放（终态）
	StateReleased

	// StateFailed 请求或续期失败（终态）
	StateFailed
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateGranted:
		return "granted"
	case StateRenewing:
		return "renewing"
	case StateExpired:
		return "expired"
	case StateReleased:
		return "released"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal 报告状态是否为终态
func (s State) Terminal() bool {
	switch s {
	case StateExpired, StateReleased, StateFailed:
		return true
	default:
		return false
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              状态单元
// ════════════════════════════════════════════════════════════════════════════

// AtomicState 无锁的生命周期状态单元
//
// 单写者/多读者：只有 worker 调用 Store（构造上保证，而非运行时检查），
// 任意多个应用 goroutine 可随时调用 Load。读者最多滞后一次待写入的更新。
type AtomicState struct {
	v atomic.Int32
}

// NewAtomicState 创建状态单元并写入初始状态
func NewAtomicState(s State) *AtomicState {
	a := &AtomicState{}
	a.v.Store(int32(s))
	return a
}

// Load 读取当前状态，永不阻塞、永不失败
func (a *AtomicState) Load() State {
	return State(a.v.Load())
}

// Store 写入新状态
//
// 仅由 worker 调用。普通原子写（last-write-wins），单写者无需 CAS。
func (a *AtomicState) Store(s State) {
	a.v.Store(int32(s))
}

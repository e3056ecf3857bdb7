package types

// ════════════════════════════════════════════════════════════════════════════
//                              事件
// ════════════════════════════════════════════════════════════════════════════

// EventKind 事件变体
type EventKind int

const (
	// EventInboundMap 入站映射请求
	EventInboundMap EventKind = iota

	// EventOutboundMap 出站映射请求
	EventOutboundMap

	// EventRelease 释放已授予的映射（来自 MapHandle 的后续命令）
	EventRelease

	// EventShutdown 终止 worker（幂等：重复接收或终止开始后接收均为空操作）
	EventShutdown
)

// String 返回事件变体的字符串表示
func (k EventKind) String() string {
	switch k {
	case EventInboundMap:
		return "inbound-map"
	case EventOutboundMap:
		return "outbound-map"
	case EventRelease:
		return "release"
	case EventShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// RequestReply worker 对单个映射请求事件的唯一回复
//
// OK 为 true 时 ID 携带分配的映射标识；OK 为 false 表示请求被拒绝，
// 具体原因已先行投递到错误通道（worker 保证错误先于否定回复可见）。
type RequestReply struct {
	// ID 分配的映射标识（仅 OK 时有效）
	ID MappingID

	// OK 请求是否被接受
	OK bool
}

// Alert 单个映射的生命周期变迁通知
//
// 按 worker 发出顺序投递到该映射的私有告警通道，包括终态。
type Alert struct {
	// ID 映射标识
	ID MappingID

	// State 变迁后的状态
	State State
}

// Event 从会话句柄发往 worker 的消息
//
// 映射请求事件发送时，描述符与状态单元进入与 worker 的共同所有权；
// Reply 通道容量为 1，worker 恰好回复一次（或在终止时直接关闭，
// 令等待方得到 Channel 错误）。
type Event struct {
	// Kind 事件变体
	Kind EventKind

	// Map 映射描述符（仅映射请求事件有效）
	Map Map

	// RequestType 续期策略（仅映射请求事件有效）
	RequestType RequestType

	// State 生命周期状态单元（仅映射请求事件有效）
	State *AtomicState

	// Reply 一次性回复通道（仅映射请求事件有效）
	Reply chan RequestReply

	// Alerts 该映射的私有告警通道（仅映射请求事件有效）
	Alerts chan Alert

	// ID 目标映射标识（仅 EventRelease 有效）
	ID MappingID
}

package pcp

import "github.com/dep2p/go-pcp/pkg/types"

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

// 共享数据模型定义在 pkg/types，这里别名导出，应用通常只需要根包。
type (
	// State 映射生命周期状态
	State = types.State

	// AtomicState 无锁状态单元
	AtomicState = types.AtomicState

	// RequestType 续期策略
	RequestType = types.RequestType

	// Protocol 传输层协议
	Protocol = types.Protocol

	// Map 映射描述符（封闭集合：InboundMap / OutboundMap）
	Map = types.Map

	// InboundMap 入站映射描述符
	InboundMap = types.InboundMap

	// OutboundMap 出站映射描述符
	OutboundMap = types.OutboundMap

	// MappingID 映射标识
	MappingID = types.MappingID

	// Alert 生命周期变迁通知
	Alert = types.Alert

	// Error 分类错误
	Error = types.Error

	// ErrorKind 错误分类标签
	ErrorKind = types.ErrorKind
)

// 生命周期状态
const (
	StateRequested = types.StateRequested
	StateGranted   = types.StateGranted
	StateRenewing  = types.StateRenewing
	StateExpired   = types.StateExpired
	StateReleased  = types.StateReleased
	StateFailed    = types.StateFailed
)

// 传输层协议
const (
	ProtocolTCP = types.ProtocolTCP
	ProtocolUDP = types.ProtocolUDP
)

// 错误分类
const (
	ErrKindSocket  = types.ErrKindSocket
	ErrKindChannel = types.ErrKindChannel
	ErrKindParsing = types.ErrKindParsing
)

// Once 返回不自动续期的请求策略
func Once() RequestType { return types.Once() }

// Repeat 返回最多自动续期 n 次的请求策略
func Repeat(n int) RequestType { return types.Repeat(n) }

// KeepAlive 返回无限续期的请求策略
func KeepAlive() RequestType { return types.KeepAlive() }

// IsSocketError 报告 err 是否为 Socket 分类
func IsSocketError(err error) bool { return types.IsSocketError(err) }

// IsChannelError 报告 err 是否为 Channel 分类
func IsChannelError(err error) bool { return types.IsChannelError(err) }

// IsParsingError 报告 err 是否为 Parsing 分类
func IsParsingError(err error) bool { return types.IsParsingError(err) }

package types

import (
	"errors"
	"fmt"
)

// ════════════════════════════════════════════════════════════════════════════
//                              错误分类
// ════════════════════════════════════════════════════════════════════════════

// ErrorKind 错误分类标签
type ErrorKind int

const (
	// ErrKindSocket 网关 I/O 失败（只能通过重新发起整个请求恢复，本层不自动重试）
	ErrKindSocket ErrorKind = iota + 1

	// ErrKindChannel 进程内通道意外断开（对挂起操作致命，说明 worker 已退出或失败）
	ErrKindChannel

	// ErrKindParsing worker 收到无法解释的协议数据（仅上报，不纠正）
	ErrKindParsing
)

// String 返回分类的字符串表示
func (k ErrorKind) String() string {
	switch k {
	case ErrKindSocket:
		return "socket"
	case ErrKindChannel:
		return "channel"
	case ErrKindParsing:
		return "parsing"
	default:
		return "unknown"
	}
}

// ErrChannelSevered 通道在对端仍被期待时已关闭
var ErrChannelSevered = errors.New("pcp: channel severed")

// Error PCP 操作产生的分类错误
//
// 由 worker 直接构造（Socket/Parsing），或在句柄侧接收观察到通道
// 关闭时派生（Channel）。派生是全量的：每个句柄侧通道失败都映射为
// Channel 错误，绝不异常终止调用 goroutine，也不丢弃信息。
type Error struct {
	// Kind 错误分类
	Kind ErrorKind

	// Cause 底层原因
	Cause error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pcp: %s: %v", e.Kind, e.Cause)
	}
	return "pcp: " + e.Kind.String()
}

// Unwrap 解包底层原因
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewSocketError 构造 Socket 分类错误
func NewSocketError(cause error) *Error {
	return &Error{Kind: ErrKindSocket, Cause: cause}
}

// NewChannelError 构造 Channel 分类错误
//
// cause 为 nil 时使用 ErrChannelSevered。
func NewChannelError(cause error) *Error {
	if cause == nil {
		cause = ErrChannelSevered
	}
	return &Error{Kind: ErrKindChannel, Cause: cause}
}

// NewParsingError 构造 Parsing 分类错误
func NewParsingError(cause *ParsingError) *Error {
	return &Error{Kind: ErrKindParsing, Cause: cause}
}

// KindOf 返回错误的分类（非本层错误返回 0）
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsSocketError 报告 err 是否为 Socket 分类
func IsSocketError(err error) bool { return KindOf(err) == ErrKindSocket }

// IsChannelError 报告 err 是否为 Channel 分类
func IsChannelError(err error) bool { return KindOf(err) == ErrKindChannel }

// IsParsingError 报告 err 是否为 Parsing 分类
func IsParsingError(err error) bool { return KindOf(err) == ErrKindParsing }

// ════════════════════════════════════════════════════════════════════════════
//                              解析错误
// ════════════════════════════════════════════════════════════════════════════

// ParsingError 线上数据解码错误
type ParsingError struct {
	// Field 出错的报文字段
	Field string

	// Detail 具体原因
	Detail string
}

// Error 实现 error 接口
func (e *ParsingError) Error() string {
	return fmt.Sprintf("pcp: parse %s: %s", e.Field, e.Detail)
}

package types

import "fmt"

// ════════════════════════════════════════════════════════════════════════════
//                              请求策略
// ════════════════════════════════════════════════════════════════════════════

// RequestKind 请求策略的种类
type RequestKind int

const (
	// RequestOnce 不自动续期
	RequestOnce RequestKind = iota

	// RequestRepeat 最多自动续期 n 次
	RequestRepeat

	// RequestKeepAlive 无限续期，直到显式释放
	RequestKeepAlive
)

// RequestType 附加在映射请求上的续期策略
//
// 纯数据，由 worker 独自负责执行：Once 不续期，Repeat(n) 最多续期 n 次，
// KeepAlive 持续续期直到收到释放命令。
type RequestType struct {
	kind  RequestKind
	count int
}

// Once 返回不自动续期的请求策略
func Once() RequestType {
	return RequestType{kind: RequestOnce}
}

// Repeat 返回最多自动续期 n 次的请求策略
func Repeat(n int) RequestType {
	return RequestType{kind: RequestRepeat, count: n}
}

// KeepAlive 返回无限续期的请求策略
func KeepAlive() RequestType {
	return RequestType{kind: RequestKeepAlive}
}

// Kind 返回策略种类
func (r RequestType) Kind() RequestKind {
	return r.kind
}

// Count 返回 Repeat 策略的最大续期次数（其他策略返回 0）
func (r RequestType) Count() int {
	return r.count
}

// String 返回策略的字符串表示
func (r RequestType) String() string {
	switch r.kind {
	case RequestOnce:
		return "once"
	case RequestRepeat:
		return fmt.Sprintf("repeat(%d)", r.count)
	case RequestKeepAlive:
		return "keep-alive"
	default:
		return "unknown"
	}
}

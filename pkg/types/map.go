package types

import (
	"net/netip"
	"time"
)

// ════════════════════════════════════════════════════════════════════════════
//                              传输协议
// ════════════════════════════════════════════════════════════════════════════

// Protocol 传输层协议（IANA 协议号，直接用于线上格式）
type Protocol uint8

const (
	// ProtocolTCP TCP 协议
	ProtocolTCP Protocol = 6

	// ProtocolUDP UDP 协议
	ProtocolUDP Protocol = 17
)

// String 返回协议名称
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              映射描述符
// ════════════════════════════════════════════════════════════════════════════

// Map 映射描述符的封闭集合
//
// 仅 InboundMap 和 OutboundMap 实现此接口（入站/出站走同一请求操作，
// 仅事件变体不同）。封闭集合通过未导出方法保证，不做开放式动态分发。
type Map interface {
	// Proto 返回映射的传输层协议
	Proto() Protocol

	// Port 返回本机内部端口
	Port() uint16

	// MapLifetime 返回期望的映射租期
	MapLifetime() time.Duration

	sealedMap()
}

// InboundMap 入站映射描述符
//
// 请求网关把 外部地址:外部端口 上的入站流量转发到本机 InternalPort。
// 对应线上协议的 MAP 操作码。
type InboundMap struct {
	// Protocol 传输层协议
	Protocol Protocol

	// InternalPort 本机内部端口
	InternalPort uint16

	// SuggestedExternalPort 期望的外部端口（0 表示由网关分配）
	SuggestedExternalPort uint16

	// SuggestedExternalAddr 期望的外部地址（零值表示由网关分配）
	SuggestedExternalAddr netip.Addr

	// Lifetime 期望的映射租期
	Lifetime time.Duration
}

// OutboundMap 出站映射描述符
//
// 为本机到指定远端的出站流量请求稳定的外部 地址:端口。
// 对应线上协议的 PEER 操作码。
type OutboundMap struct {
	// Protocol 传输层协议
	Protocol Protocol

	// InternalPort 本机内部端口
	InternalPort uint16

	// RemoteAddr 远端地址
	RemoteAddr netip.Addr

	// RemotePort 远端端口
	RemotePort uint16

	// Lifetime 期望的映射租期
	Lifetime time.Duration
}

// Proto 返回映射的传输层协议
func (m *InboundMap) Proto() Protocol { return m.Protocol }

// Port 返回本机内部端口
func (m *InboundMap) Port() uint16 { return m.InternalPort }

// MapLifetime 返回期望的映射租期
func (m *InboundMap) MapLifetime() time.Duration { return m.Lifetime }

func (m *InboundMap) sealedMap() {}

// Proto 返回映射的传输层协议
func (m *OutboundMap) Proto() Protocol { return m.Protocol }

// Port 返回本机内部端口
func (m *OutboundMap) Port() uint16 { return m.InternalPort }

// MapLifetime 返回期望的映射租期
func (m *OutboundMap) MapLifetime() time.Duration { return m.Lifetime }

func (m *OutboundMap) sealedMap() {}

package wire

import (
	"encoding/binary"
	"net/netip"

	"github.com/dep2p/go-pcp/pkg/types"
)

// Request PCP 请求报文
//
// MAP 与 PEER 共用同一结构：RemoteAddr/RemotePort 仅在 OpPeer 时编码。
// ANNOUNCE 请求只编码公共头。
type Request struct {
	// Opcode 操作码
	Opcode Opcode

	// Lifetime 请求的租期（秒，0 表示删除映射）
	Lifetime uint32

	// ClientAddr 客户端源地址（网关据此校验发送方）
	ClientAddr netip.Addr

	// Nonce 映射 nonce（关联请求与响应）
	Nonce [12]byte

	// Protocol 传输层协议
	Protocol types.Protocol

	// InternalPort 内部端口
	InternalPort uint16

	// SuggestedExternalPort 期望的外部端口
	SuggestedExternalPort uint16

	// SuggestedExternalAddr 期望的外部地址
	SuggestedExternalAddr netip.Addr

	// RemotePort 远端端口（仅 OpPeer）
	RemotePort uint16

	// RemoteAddr 远端地址（仅 OpPeer）
	RemoteAddr netip.Addr
}

// Marshal 编码请求报文
func (r *Request) Marshal() []byte {
	size := requestHeaderLen
	switch r.Opcode {
	case OpMap:
		size += mapPayloadLen
	case OpPeer:
		size += peerPayloadLen
	}

	buf := make([]byte, size)

	// 公共头
	buf[0] = Version
	buf[1] = byte(r.Opcode)
	binary.BigEndian.PutUint32(buf[4:8], r.Lifetime)
	client := addr16(r.ClientAddr)
	copy(buf[8:24], client[:])

	if r.Opcode == OpAnnounce {
		return buf
	}

	// MAP/PEER 共同部分
	p := buf[requestHeaderLen:]
	copy(p[0:12], r.Nonce[:])
	p[12] = byte(r.Protocol)
	binary.BigEndian.PutUint16(p[16:18], r.InternalPort)
	binary.BigEndian.PutUint16(p[18:20], r.SuggestedExternalPort)
	ext := addr16(r.SuggestedExternalAddr)
	copy(p[20:36], ext[:])

	// PEER 附加部分
	if r.Opcode == OpPeer {
		binary.BigEndian.PutUint16(p[36:38], r.RemotePort)
		remote := addr16(r.RemoteAddr)
		copy(p[40:56], remote[:])
	}

	return buf
}

// addr16 把地址编码为 16 字节（IPv4 使用 v4-mapped 形式，零值为全零）
func addr16(a netip.Addr) [16]byte {
	if !a.IsValid() {
		return [16]byte{}
	}
	return a.As16()
}

// addrFrom16 从 16 字节解码地址（v4-mapped 还原为 IPv4，全零返回无效地址）
func addrFrom16(b []byte) netip.Addr {
	var raw [16]byte
	copy(raw[:], b)
	if raw == ([16]byte{}) {
		return netip.Addr{}
	}
	a := netip.AddrFrom16(raw)
	return a.Unmap()
}

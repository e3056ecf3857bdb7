package wire

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/dep2p/go-pcp/pkg/types"
)

// Response PCP 响应报文
type Response struct {
	// Version 报文版本（NAT-PMP 网关会以版本 0 应答，上层据此触发回退）
	Version uint8

	// Opcode 操作码（已去除 R 标志位）
	Opcode Opcode

	// Result 结果码
	Result ResultCode

	// Lifetime 网关授予的租期（秒）
	Lifetime uint32

	// Epoch 网关纪元时间（秒，回退检测网关重启）
	Epoch uint32

	// Nonce 映射 nonce（关联请求）
	Nonce [12]byte

	// Protocol 传输层协议
	Protocol types.Protocol

	// InternalPort 内部端口
	InternalPort uint16

	// ExternalPort 网关分配的外部端口
	ExternalPort uint16

	// ExternalAddr 网关分配的外部地址
	ExternalAddr netip.Addr

	// RemotePort 远端端口（仅 PEER）
	RemotePort uint16

	// RemoteAddr 远端地址（仅 PEER）
	RemoteAddr netip.Addr
}

// ParseResponse 解码 PCP 响应报文
//
// 校验是严格的：长度、版本、R 标志位、操作码任一不合法都返回
// *types.ParsingError。报文尾部的未知选项被忽略（本实现不发送选项）。
func ParseResponse(b []byte) (*Response, *types.ParsingError) {
	if len(b) < responseHeaderLen {
		return nil, &types.ParsingError{
			Field:  "header",
			Detail: fmt.Sprintf("short message: %d bytes", len(b)),
		}
	}
	if len(b) > MaxMessageLen {
		return nil, &types.ParsingError{
			Field:  "header",
			Detail: fmt.Sprintf("oversized message: %d bytes", len(b)),
		}
	}

	version := b[0]
	if version != Version && version != 0 {
		return nil, &types.ParsingError{
			Field:  "version",
			Detail: fmt.Sprintf("unsupported version %d", version),
		}
	}

	if b[1]&responseBit == 0 {
		return nil, &types.ParsingError{
			Field:  "opcode",
			Detail: "R bit not set in response",
		}
	}

	resp := &Response{
		Version:  version,
		Opcode:   Opcode(b[1] &^ responseBit),
		Result:   ResultCode(b[3]),
		Lifetime: binary.BigEndian.Uint32(b[4:8]),
		Epoch:    binary.BigEndian.Uint32(b[8:12]),
	}

	// 版本 0 是 NAT-PMP 网关的 UNSUPP_VERSION 应答，只有头部可信
	if version == 0 {
		resp.Result = ResultUnsuppVersion
		return resp, nil
	}

	switch resp.Opcode {
	case OpAnnounce:
		return resp, nil

	case OpMap:
		if len(b) < responseHeaderLen+mapPayloadLen {
			return nil, &types.ParsingError{
				Field:  "map",
				Detail: fmt.Sprintf("short MAP payload: %d bytes", len(b)-responseHeaderLen),
			}
		}

	case OpPeer:
		if len(b) < responseHeaderLen+peerPayloadLen {
			return nil, &types.ParsingError{
				Field:  "peer",
				Detail: fmt.Sprintf("short PEER payload: %d bytes", len(b)-responseHeaderLen),
			}
		}

	default:
		return nil, &types.ParsingError{
			Field:  "opcode",
			Detail: fmt.Sprintf("unknown opcode %d", uint8(resp.Opcode)),
		}
	}

	p := b[responseHeaderLen:]
	copy(resp.Nonce[:], p[0:12])
	resp.Protocol = types.Protocol(p[12])
	resp.InternalPort = binary.BigEndian.Uint16(p[16:18])
	resp.ExternalPort = binary.BigEndian.Uint16(p[18:20])
	resp.ExternalAddr = addrFrom16(p[20:36])

	if resp.Opcode == OpPeer {
		resp.RemotePort = binary.BigEndian.Uint16(p[36:38])
		resp.RemoteAddr = addrFrom16(p[40:56])
	}

	return resp, nil
}

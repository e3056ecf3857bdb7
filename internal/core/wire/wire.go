// Package wire 实现 PCP (RFC 6887) 报文编解码
//
// 只做字节与结构之间的转换，不做任何 I/O。所有解码失败都返回
// *types.ParsingError，由上层归类为 Parsing 错误上报。
package wire

// Version PCP 协议版本
const Version = 2

// 端口约定（RFC 6887 §8）
const (
	// ServerPort 网关侧监听端口
	ServerPort = 5351

	// ClientPort 客户端接收单播 ANNOUNCE 的端口
	ClientPort = 5350
)

// 报文尺寸
const (
	// requestHeaderLen 请求公共头长度
	requestHeaderLen = 24

	// responseHeaderLen 响应公共头长度
	responseHeaderLen = 24

	// mapPayloadLen MAP 操作码负载长度
	mapPayloadLen = 36

	// peerPayloadLen PEER 操作码负载长度
	peerPayloadLen = 56

	// MaxMessageLen PCP 报文长度上限
	MaxMessageLen = 1100
)

// responseBit 响应报文在 opcode 字节上的 R 标志位
const responseBit = 0x80

// ════════════════════════════════════════════════════════════════════════════
//                              操作码
// ════════════════════════════════════════════════════════════════════════════

// Opcode PCP 操作码
type Opcode uint8

const (
	// OpAnnounce 网关重启/纪元通告
	OpAnnounce Opcode = 0

	// OpMap 入站映射
	OpMap Opcode = 1

	// OpPeer 出站映射
	OpPeer Opcode = 2
)

// String 返回操作码名称
func (o Opcode) String() string {
	switch o {
	case OpAnnounce:
		return "ANNOUNCE"
	case OpMap:
		return "MAP"
	case OpPeer:
		return "PEER"
	default:
		return "UNKNOWN"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              结果码
// ════════════════════════════════════════════════════════════════════════════

// ResultCode PCP 响应结果码（RFC 6887 §7.4）
type ResultCode uint8

const (
	ResultSuccess               ResultCode = 0
	ResultUnsuppVersion         ResultCode = 1
	ResultNotAuthorized         ResultCode = 2
	ResultMalformedRequest      ResultCode = 3
	ResultUnsuppOpcode          ResultCode = 4
	ResultUnsuppOption          ResultCode = 5
	ResultMalformedOption       ResultCode = 6
	ResultNetworkFailure        ResultCode = 7
	ResultNoResources           ResultCode = 8
	ResultUnsuppProtocol        ResultCode = 9
	ResultUserExQuota           ResultCode = 10
	ResultCannotProvideExternal ResultCode = 11
	ResultAddressMismatch       ResultCode = 12
	ResultExcessiveRemotePeers  ResultCode = 13
)

// String 返回结果码名称
func (rc ResultCode) String() string {
	switch rc {
	case ResultSuccess:
		return "SUCCESS"
	case ResultUnsuppVersion:
		return "UNSUPP_VERSION"
	case ResultNotAuthorized:
		return "NOT_AUTHORIZED"
	case ResultMalformedRequest:
		return "MALFORMED_REQUEST"
	case ResultUnsuppOpcode:
		return "UNSUPP_OPCODE"
	case ResultUnsuppOption:
		return "UNSUPP_OPTION"
	case ResultMalformedOption:
		return "MALFORMED_OPTION"
	case ResultNetworkFailure:
		return "NETWORK_FAILURE"
	case ResultNoResources:
		return "NO_RESOURCES"
	case ResultUnsuppProtocol:
		return "UNSUPP_PROTOCOL"
	case ResultUserExQuota:
		return "USER_EX_QUOTA"
	case ResultCannotProvideExternal:
		return "CANNOT_PROVIDE_EXTERNAL"
	case ResultAddressMismatch:
		return "ADDRESS_MISMATCH"
	case ResultExcessiveRemotePeers:
		return "EXCESSIVE_REMOTE_PEERS"
	default:
		return "UNKNOWN"
	}
}

// Success 报告结果码是否表示成功
func (rc ResultCode) Success() bool {
	return rc == ResultSuccess
}

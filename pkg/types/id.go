package types

import "github.com/google/uuid"

// MappingID 映射的关联令牌
//
// 由 worker 在接受请求时分配的不透明标识。线上协议的 96 位 nonce
// 从其前 12 字节派生，应用侧只把它当作相等性比较和日志用的句柄。
type MappingID uuid.UUID

// NewMappingID 生成新的映射标识
func NewMappingID() MappingID {
	return MappingID(uuid.New())
}

// String 返回标识的字符串表示
func (id MappingID) String() string {
	return uuid.UUID(id).String()
}

// IsZero 报告标识是否为零值
func (id MappingID) IsZero() bool {
	return id == MappingID(uuid.Nil)
}

// Nonce 返回从标识派生的 96 位映射 nonce
func (id MappingID) Nonce() [12]byte {
	var n [12]byte
	copy(n[:], id[:12])
	return n
}

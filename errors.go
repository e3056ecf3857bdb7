package pcp

import "errors"

// 公共错误定义
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("pcp: invalid config")

	// ErrNoGateway 无法发现支持端口映射的网关
	ErrNoGateway = errors.New("pcp: no gateway found")
)

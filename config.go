package pcp

import (
	"net/netip"
	"time"
)

// Config 会话配置
type Config struct {
	// Gateway 网关地址（零值时自动发现默认网关）
	Gateway netip.Addr

	// ClientAddr 本机源地址（零值时按到网关的路由自动探测）
	ClientAddr netip.Addr

	// Timeout 网关发现与源地址探测的超时
	Timeout time.Duration

	// EventBuffer 事件通道容量
	EventBuffer int

	// ErrorBuffer 错误通道容量
	ErrorBuffer int

	// NATPMPFallback 网关只讲 NAT-PMP 时是否自动回退
	NATPMPFallback bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Timeout:        5 * time.Second,
		EventBuffer:    32,
		ErrorBuffer:    64,
		NATPMPFallback: true,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidConfig
	}
	if c.EventBuffer <= 0 || c.ErrorBuffer <= 0 {
		return ErrInvalidConfig
	}
	if c.Gateway.IsValid() && c.ClientAddr.IsValid() {
		// 两个地址族必须一致
		if c.Gateway.Is4() != c.ClientAddr.Is4() {
			return ErrInvalidConfig
		}
	}
	return nil
}

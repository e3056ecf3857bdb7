package pcp

import (
	"net"
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	cfg *Config

	// 测试注入点
	conn net.PacketConn
	clk  clock.Clock
}

// newOptions 应用选项并得到最终配置
func newOptions(opts []Option) (*options, error) {
	o := &options{cfg: DefaultConfig()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// WithConfig 使用完整配置（未设置的字段保持零值，不回填默认值）
func WithConfig(cfg *Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return ErrInvalidConfig
		}
		o.cfg = cfg
		return nil
	}
}

// WithGateway 指定网关地址，跳过自动发现
func WithGateway(gw netip.Addr) Option {
	return func(o *options) error {
		if !gw.IsValid() {
			return ErrInvalidConfig
		}
		o.cfg.Gateway = gw
		return nil
	}
}

// WithClientAddr 指定本机源地址，跳过自动探测
func WithClientAddr(addr netip.Addr) Option {
	return func(o *options) error {
		if !addr.IsValid() {
			return ErrInvalidConfig
		}
		o.cfg.ClientAddr = addr
		return nil
	}
}

// WithTimeout 设置发现超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		o.cfg.Timeout = d
		return nil
	}
}

// WithEventBuffer 设置事件通道容量
func WithEventBuffer(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return ErrInvalidConfig
		}
		o.cfg.EventBuffer = n
		return nil
	}
}

// WithErrorBuffer 设置错误通道容量
func WithErrorBuffer(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return ErrInvalidConfig
		}
		o.cfg.ErrorBuffer = n
		return nil
	}
}

// WithNATPMPFallback 开关 NAT-PMP 回退
func WithNATPMPFallback(enable bool) Option {
	return func(o *options) error {
		o.cfg.NATPMPFallback = enable
		return nil
	}
}

// WithPacketConn 注入已绑定的 socket（测试用）
func WithPacketConn(conn net.PacketConn) Option {
	return func(o *options) error {
		if conn == nil {
			return ErrInvalidConfig
		}
		o.conn = conn
		return nil
	}
}

// WithClock 注入时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		if clk == nil {
			return ErrInvalidConfig
		}
		o.clk = clk
		return nil
	}
}

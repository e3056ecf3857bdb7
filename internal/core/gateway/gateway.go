// Package gateway 提供默认网关与本机源地址发现
//
// PCP 请求必须携带客户端源地址，且发往默认网关的 5351 端口。
// 本包负责在未显式配置网关时找出这两个地址。
package gateway

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/jackpal/gateway"

	"github.com/dep2p/go-pcp/internal/util/logger"
)

var log = logger.Logger("gateway")

// DefaultTimeout 默认发现超时
const DefaultTimeout = 5 * time.Second

// DiscoveryError 网关发现错误
type DiscoveryError struct {
	Message string
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return "gateway: " + e.Message + ": " + e.Cause.Error()
	}
	return "gateway: " + e.Message
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// Discover 发现默认网关地址
//
// 底层库的路由表查询不支持取消，这里用 goroutine + select 包装
// 实现超时控制。
func Discover(timeout time.Duration) (netip.Addr, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ipCh := make(chan net.IP, 1)
	errCh := make(chan error, 1)

	go func() {
		ip, err := gateway.DiscoverGateway()
		if err != nil {
			errCh <- err
			return
		}
		ipCh <- ip
	}()

	select {
	case ip := <-ipCh:
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			return netip.Addr{}, &DiscoveryError{
				Message: "discover gateway",
				Cause:   fmt.Errorf("invalid gateway address %v", ip),
			}
		}
		addr = addr.Unmap()
		log.Debug("发现默认网关", "gateway", addr)
		return addr, nil

	case err := <-errCh:
		return netip.Addr{}, &DiscoveryError{
			Message: "discover gateway",
			Cause:   err,
		}

	case <-time.After(timeout):
		return netip.Addr{}, &DiscoveryError{
			Message: "discover gateway",
			Cause:   fmt.Errorf("timeout after %v", timeout),
		}
	}
}

// LocalAddrFor 返回本机到指定网关的源地址
//
// 通过无连接 UDP dial 让内核选路，不产生任何网络流量。
func LocalAddrFor(gw netip.Addr) (netip.Addr, error) {
	conn, err := net.Dial("udp", netip.AddrPortFrom(gw, 9).String())
	if err != nil {
		return netip.Addr{}, &DiscoveryError{
			Message: "resolve local address",
			Cause:   err,
		}
	}
	defer func() { _ = conn.Close() }()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, &DiscoveryError{
			Message: "resolve local address",
			Cause:   fmt.Errorf("unexpected local address type %T", conn.LocalAddr()),
		}
	}

	addr, ok := netip.AddrFromSlice(local.IP)
	if !ok {
		return netip.Addr{}, &DiscoveryError{
			Message: "resolve local address",
			Cause:   fmt.Errorf("invalid local address %v", local.IP),
		}
	}

	return addr.Unmap(), nil
}

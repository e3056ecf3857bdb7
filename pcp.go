// Package pcp 实现 PCP（端口控制协议，RFC 6887）客户端引擎
package pcp

import (
	"fmt"
	"net"
	"net/netip"
	"runtime"

	"github.com/dep2p/go-pcp/internal/core/client"
	"github.com/dep2p/go-pcp/internal/core/compat"
	"github.com/dep2p/go-pcp/internal/core/gateway"
	"github.com/dep2p/go-pcp/internal/core/wire"
	"github.com/dep2p/go-pcp/internal/util/logger"
	"github.com/dep2p/go-pcp/pkg/types"
)

var log = logger.Logger("pcp")

// ════════════════════════════════════════════════════════════════════════════
// 客户端构造
// ════════════════════════════════════════════════════════════════════════════

// NewClient 创建 PCP 客户端会话并启动后台 worker
//
// 未显式配置网关时自动发现默认网关；未显式配置源地址时由内核选路
// 探测。返回的句柄是会话的唯一应用侧入口，用完必须 Shutdown（句柄
// 被回收时终结器会兜底终止会话）。
func NewClient(opts ...Option) (*Handle, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg := o.cfg

	gw := cfg.Gateway
	if !gw.IsValid() {
		gw, err = gateway.Discover(cfg.Timeout)
		if err != nil {
			log.Error("网关发现失败", "err", err)
			return nil, fmt.Errorf("%w: %w", ErrNoGateway, err)
		}
	}

	clientAddr := cfg.ClientAddr
	if !clientAddr.IsValid() {
		clientAddr, err = gateway.LocalAddrFor(gw)
		if err != nil {
			return nil, err
		}
	}

	conn := o.conn
	if conn == nil {
		conn, err = bindSocket(clientAddr)
		if err != nil {
			return nil, types.NewSocketError(err)
		}
	}

	events := make(chan types.Event, cfg.EventBuffer)
	errs := make(chan *types.Error, cfg.ErrorBuffer)
	quit := make(chan struct{})

	var fb *compat.Mapper
	if cfg.NATPMPFallback {
		fb = compat.NewMapper(gw, cfg.Timeout)
	}

	w := client.New(client.Config{
		Conn:       conn,
		Gateway:    netip.AddrPortFrom(gw, wire.ServerPort),
		ClientAddr: clientAddr,
		Clock:      o.clk,
		Fallback:   fb,
		Events:     events,
		Quit:       quit,
		Errors:     errs,
	})
	go w.Run()

	h := newHandle(events, errs, quit, w.Done())
	runtime.SetFinalizer(h, (*Handle).Shutdown)

	log.Info("PCP 会话已建立", "gateway", gw, "client", clientAddr)
	return h, nil
}

// bindSocket 绑定 UDP socket
//
// 优先绑定协议规定的客户端端口 5350，被占用时退回临时端口
// （网关按源地址端口回包，临时端口不影响会话）。
func bindSocket(clientAddr netip.Addr) (net.PacketConn, error) {
	laddr := net.UDPAddrFromAddrPort(netip.AddrPortFrom(clientAddr, wire.ClientPort))
	conn, err := net.ListenUDP("udp", laddr)
	if err == nil {
		return conn, nil
	}

	laddr.Port = 0
	return net.ListenUDP("udp", laddr)
}

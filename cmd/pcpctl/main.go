// Package main 提供 pcpctl 命令行入口
//
// 向默认网关请求一条端口映射并保持续期，收到中断信号后释放退出。
// 用于验证网关的 PCP/NAT-PMP 支持情况。
package main

import (
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	pcp "github.com/dep2p/go-pcp"
)

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	proto    = flag.String("proto", "tcp", "传输协议 (tcp/udp)")
	port     = flag.Uint("port", 0, "本机内部端口（必需）")
	extPort  = flag.Uint("external-port", 0, "期望的外部端口（0 = 网关分配）")
	lifetime = flag.Duration("lifetime", time.Hour, "映射租期")
	gateway  = flag.String("gateway", "", "网关地址（空 = 自动发现）")
	once     = flag.Bool("once", false, "不自动续期")
	fallback = flag.Bool("natpmp-fallback", true, "网关只讲 NAT-PMP 时自动回退")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pcpctl:", err)
		os.Exit(1)
	}
}

func run() error {
	if *port == 0 || *port > 65535 {
		return fmt.Errorf("需要 1-65535 范围内的 --port")
	}

	var protocol pcp.Protocol
	switch *proto {
	case "tcp":
		protocol = pcp.ProtocolTCP
	case "udp":
		protocol = pcp.ProtocolUDP
	default:
		return fmt.Errorf("未知协议 %q", *proto)
	}

	opts := []pcp.Option{pcp.WithNATPMPFallback(*fallback)}
	if *gateway != "" {
		gw, err := netip.ParseAddr(*gateway)
		if err != nil {
			return fmt.Errorf("网关地址无效: %w", err)
		}
		opts = append(opts, pcp.WithGateway(gw))
	}

	h, err := pcp.NewClient(opts...)
	if err != nil {
		return err
	}
	defer h.Shutdown()

	kind := pcp.KeepAlive()
	if *once {
		kind = pcp.Once()
	}

	mh, err := h.Request(&pcp.InboundMap{
		Protocol:              protocol,
		InternalPort:          uint16(*port),
		SuggestedExternalPort: uint16(*extPort),
		Lifetime:              *lifetime,
	}, kind)
	if err != nil {
		return fmt.Errorf("映射请求失败: %w", err)
	}

	fmt.Printf("映射已授予 id=%s proto=%s port=%d state=%s\n",
		mh.ID(), protocol, *port, mh.State())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case a, ok := <-mh.Alerts():
			if !ok {
				// 映射进入终态或会话终止
				fmt.Printf("映射结束 state=%s\n", mh.State())
				return nil
			}
			fmt.Printf("状态变迁 id=%s state=%s\n", a.ID, a.State)

		case <-sigCh:
			fmt.Println("收到退出信号，释放映射")
			mh.Release()
			return nil
		}
	}
}

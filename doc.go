// Package pcp 提供 PCP (Port Control Protocol, RFC 6887) 客户端
//
// go-pcp 让应用向网关/NAT 设备请求建立、续期、删除入站或出站端口映射，
// 并在不阻塞自身 goroutine 的前提下观察每个映射的生命周期状态。
//
// # 核心概念
//
//   - Handle: 会话句柄，请求 API 的入口，背后是一个专职 worker goroutine
//   - MapHandle: 单个已授予映射的句柄（标识、状态读取、告警流、释放）
//   - RequestType: 续期策略（Once / Repeat(n) / KeepAlive）
//
// # 快速开始
//
//	import "github.com/dep2p/go-pcp"
//
//	// 1. 建立会话（自动发现默认网关）
//	h, err := pcp.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Shutdown()
//
//	// 2. 请求入站映射：把外部 8080 端口转发到本机 8080，持续续期
//	mh, err := h.Request(&pcp.InboundMap{
//	    Protocol:     pcp.ProtocolTCP,
//	    InternalPort: 8080,
//	    Lifetime:     time.Hour,
//	}, pcp.KeepAlive())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// 3. 观察生命周期
//	fmt.Println(mh.State()) // granted
//	for alert := range mh.Alerts() {
//	    fmt.Println("状态变迁:", alert.State)
//	}
//
// # 并发模型
//
// 恰好两种角色：持有 Handle/MapHandle 的应用 goroutine，和每个会话
// 一个的专职 worker goroutine。多个应用 goroutine 可共享同一 Handle
// 并发发起请求（事件通道对并发发送安全，同一 goroutine 的发送顺序
// 即 worker 的观察顺序）；错误通道是单一逻辑消费者，并发的
// WaitErr/PollErr 按先到先得竞争，既不重复也不丢失。
//
// 状态单元是唯一不经消息传递跨 goroutine 共享的资源：单写者（worker）
// 多读者的无锁原子设计保证任意时刻的读取安全。其余一切交互都通过
// 通道完成。
//
// # 错误分类
//
// 所有失败都归入三类之一：Socket（网关 I/O 失败）、Channel（进程内
// 通道断开，说明 worker 已退出）、Parsing（收到无法解释的协议数据）。
// Request 永不因 worker 失败而 panic——它总是返回一个分类错误。
//
// # 网关兼容
//
// 网关只讲 NAT-PMP（PCP 的前身，版本 0）时，入站映射自动回退到
// NAT-PMP 完成（可通过配置关闭）。
package pcp

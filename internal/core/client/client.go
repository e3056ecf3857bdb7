// Package client 实现 PCP 会话的后台 worker
//
// worker 是每个会话唯一的事件消费者：按发送顺序处理来自句柄的事件，
// 执行线上协议（重传、续期、纪元检测），并通过回复通道、告警通道、
// 错误通道和状态单元把结果发布回应用侧。
//
// 与核心层的契约：
//   - 每个映射请求事件恰好一次回复（成功携带标识，拒绝为否定回复，
//     终止时直接关闭回复通道）；
//   - 失败请求的错误先于否定回复投递到错误通道；
//   - 状态单元只由 worker 写入，且不离开终态；
//   - Shutdown 幂等：内部相位机 Running → Stopping → Stopped，
//     终止开始后再收到任何终止信号都是空操作。
package client

import (
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-pcp/internal/core/compat"
	"github.com/dep2p/go-pcp/internal/util/logger"
	"github.com/dep2p/go-pcp/pkg/types"
)

var log = logger.Logger("client")

// 重传参数（RFC 6887 §8.1.1 简化）
const (
	// initialRT 首次重传间隔
	initialRT = 3 * time.Second

	// maxRT 重传间隔上限
	maxRT = 1024 * time.Second

	// maxRetries 最大重传次数，超过后请求按超时失败
	maxRetries = 5

	// idleTick 无待办定时动作时的定时器周期
	idleTick = time.Hour
)

// phase worker 相位
type phase int

const (
	phaseRunning phase = iota
	phaseStopping
	phaseStopped
)

// packet 从读 goroutine 传给事件循环的数据报
type packet struct {
	data []byte
	from net.Addr
}

// Config worker 配置
type Config struct {
	// Conn 已绑定的 UDP socket
	Conn net.PacketConn

	// Gateway 网关地址（含端口）
	Gateway netip.AddrPort

	// ClientAddr 本机源地址（编码进每个请求）
	ClientAddr netip.Addr

	// Clock 时钟（测试注入 clock.Mock）
	Clock clock.Clock

	// Fallback NAT-PMP 回退映射器（nil 表示禁用）
	Fallback *compat.Mapper

	// Events 事件通道（worker 持有唯一接收端）
	Events <-chan types.Event

	// Quit 关闭信号通道（句柄终结时关闭）
	Quit <-chan struct{}

	// Errors 错误通道（worker 持有发送端，退出时关闭）
	Errors chan *types.Error
}

// Worker PCP 会话的后台 worker
//
// 除 errs 的发送和 Done 外，所有字段仅由事件循环 goroutine 访问。
type Worker struct {
	conn       net.PacketConn
	gwAddr     *net.UDPAddr
	clientAddr netip.Addr
	clk        clock.Clock
	fallback   *compat.Mapper

	events <-chan types.Event
	quit   <-chan struct{}
	errs   chan *types.Error

	phase         phase
	usingFallback bool
	mappings      map[types.MappingID]*mapping
	byNonce       map[[12]byte]types.MappingID

	// 网关纪元（重启检测）
	epoch      uint32
	epochValid bool

	packets  chan packet
	readErr  chan error
	readQuit chan struct{}

	wg   sync.WaitGroup
	done chan struct{}
}

// New 创建 worker（不启动）
func New(cfg Config) *Worker {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Worker{
		conn:       cfg.Conn,
		gwAddr:     net.UDPAddrFromAddrPort(cfg.Gateway),
		clientAddr: cfg.ClientAddr,
		clk:        clk,
		fallback:   cfg.Fallback,
		events:     cfg.Events,
		quit:       cfg.Quit,
		errs:       cfg.Errors,
		mappings:   make(map[types.MappingID]*mapping),
		byNonce:    make(map[[12]byte]types.MappingID),
		packets:    make(chan packet, 8),
		readErr:    make(chan error, 1),
		readQuit:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Done 返回在 worker 完全退出时关闭的通道
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Run 运行事件循环，直到收到终止信号或发生致命 socket 错误
//
// 应在独立 goroutine 中调用。
func (w *Worker) Run() {
	defer close(w.done)

	w.wg.Add(1)
	go w.readLoop()

	timer := w.clk.Timer(idleTick)
	defer timer.Stop()

	log.Debug("worker 已启动", "gateway", w.gwAddr.String())

	for w.phase == phaseRunning {
		w.rearm(timer)

		select {
		case ev := <-w.events:
			w.handleEvent(ev)

		case <-w.quit:
			w.shutdown()

		case pkt := <-w.packets:
			w.handlePacket(pkt)

		case err := <-w.readErr:
			w.handleReadError(err)

		case <-timer.C:
			w.handleTick()
		}
	}

	w.wg.Wait()
	log.Debug("worker 已退出")
}

// readLoop 从 socket 读数据报并转交事件循环
//
// shutdown 关闭 socket 使阻塞的 ReadFrom 返回，从而退出本循环。
func (w *Worker) readLoop() {
	defer w.wg.Done()

	buf := make([]byte, 2048)
	for {
		n, from, err := w.conn.ReadFrom(buf)
		if err != nil {
			select {
			case w.readErr <- err:
			default:
			}
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case w.packets <- packet{data: data, from: from}:
		case <-w.readQuit:
			return
		}
	}
}

// handleReadError 处理读 goroutine 上报的 socket 错误
//
// 终止过程中 socket 被主动关闭产生的错误不算故障。
func (w *Worker) handleReadError(err error) {
	if w.phase != phaseRunning {
		return
	}

	log.Error("socket 读取失败，worker 终止", "err", err)
	w.postErr(types.NewSocketError(err))
	w.shutdown()
}

// shutdown 终止 worker
//
// 幂等：Running 之外的相位收到终止信号是空操作。
// 终止顺序：释放已授予的映射（尽力而为），关闭挂起请求的回复通道
// （令等待方得到 Channel 错误），关闭所有告警通道，关闭 socket 与
// 错误通道。
func (w *Worker) shutdown() {
	if w.phase != phaseRunning {
		return
	}
	w.phase = phaseStopping

	log.Debug("worker 终止中", "mappings", len(w.mappings))

	for _, m := range w.mappings {
		if m.reply != nil {
			// 在途请求：关闭回复通道，等待方按 Channel 错误失败
			close(m.reply)
			m.reply = nil
			continue
		}

		// 已授予的映射：尽力释放
		w.releaseMapping(m)
	}

	for id, m := range w.mappings {
		if m.alerts != nil {
			close(m.alerts)
			m.alerts = nil
		}
		delete(w.mappings, id)
		delete(w.byNonce, m.nonce)
	}

	close(w.readQuit)
	_ = w.conn.Close()
	close(w.errs)

	w.phase = phaseStopped
}

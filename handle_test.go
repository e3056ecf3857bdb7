package pcp

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-pcp/pkg/types"
)

const waitTimeout = 2 * time.Second

// newTestHandle 构造句柄并暴露 worker 侧的通道端点，测试脚本扮演 worker
//
// 返回的 done 由测试脚本在模拟 worker 退出时关闭。
func newTestHandle() (*Handle, chan types.Event, chan *types.Error, chan struct{}) {
	events := make(chan types.Event, 32)
	errs := make(chan *types.Error, 64)
	quit := make(chan struct{})
	done := make(chan struct{})
	return newHandle(events, errs, quit, done), events, errs, done
}

func testInbound() *InboundMap {
	return &InboundMap{
		Protocol:     ProtocolTCP,
		InternalPort: 8080,
		Lifetime:     time.Hour,
	}
}

func recvEvent(t *testing.T, events chan types.Event) types.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("脚本未收到事件")
		return types.Event{}
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              请求
// ════════════════════════════════════════════════════════════════════════════

func TestHandle_RequestGranted(t *testing.T) {
	h, events, _, _ := newTestHandle()

	id := types.NewMappingID()
	go func() {
		ev := recvEvent(t, events)
		assert.Equal(t, types.EventInboundMap, ev.Kind)
		assert.Equal(t, types.StateRequested, ev.State.Load())

		ev.State.Store(types.StateGranted)
		ev.Alerts <- types.Alert{ID: id, State: types.StateGranted}
		ev.Reply <- types.RequestReply{ID: id, OK: true}
	}()

	mh, err := h.Request(testInbound(), Once())
	require.NoError(t, err)
	require.NotNil(t, mh)

	assert.Equal(t, id, mh.ID())
	assert.Equal(t, StateGranted, mh.State())

	a, err := mh.WaitAlert()
	require.NoError(t, err)
	assert.Equal(t, StateGranted, a.State)
}

func TestHandle_RequestOutboundEventKind(t *testing.T) {
	h, events, _, _ := newTestHandle()

	go func() {
		ev := recvEvent(t, events)
		assert.Equal(t, types.EventOutboundMap, ev.Kind)
		ev.Reply <- types.RequestReply{ID: types.NewMappingID(), OK: true}
	}()

	m := &OutboundMap{
		Protocol:     ProtocolUDP,
		InternalPort: 5000,
		RemoteAddr:   netip.MustParseAddr("203.0.113.7"),
		RemotePort:   443,
		Lifetime:     time.Minute,
	}
	mh, err := h.Request(m, KeepAlive())
	require.NoError(t, err)
	assert.NotNil(t, mh)
}

func TestHandle_RequestRefused(t *testing.T) {
	h, events, errs, _ := newTestHandle()

	cause := errors.New("gateway refused: NO_RESOURCES")
	go func() {
		ev := recvEvent(t, events)
		// worker 契约：错误先于否定回复投递
		errs <- types.NewSocketError(cause)
		ev.Reply <- types.RequestReply{OK: false}
	}()

	mh, err := h.Request(testInbound(), Once())
	assert.Nil(t, mh)
	require.Error(t, err)
	assert.True(t, IsSocketError(err))
	assert.ErrorIs(t, err, cause)
}

func TestHandle_RequestRefusedParsing(t *testing.T) {
	h, events, errs, _ := newTestHandle()

	go func() {
		ev := recvEvent(t, events)
		// worker 契约：错误先于否定回复投递
		errs <- types.NewParsingError(&types.ParsingError{Field: "lifetime", Detail: "value overflows"})
		ev.Reply <- types.RequestReply{OK: false}
	}()

	mh, err := h.Request(testInbound(), Once())
	assert.Nil(t, mh)
	require.Error(t, err)
	assert.True(t, IsParsingError(err))

	var perr *types.ParsingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "lifetime", perr.Field)
}

func TestHandle_RequestWorkerGone(t *testing.T) {
	h, events, _, _ := newTestHandle()

	go func() {
		ev := recvEvent(t, events)
		// worker 终止：关闭回复通道而非发送回复
		close(ev.Reply)
	}()

	mh, err := h.Request(testInbound(), Once())
	assert.Nil(t, mh)
	require.Error(t, err)
	assert.True(t, IsChannelError(err))
}

func TestHandle_RequestAfterShutdown(t *testing.T) {
	h, _, _, _ := newTestHandle()
	h.Shutdown()

	mh, err := h.Request(testInbound(), Once())
	assert.Nil(t, mh)
	require.Error(t, err)
	assert.True(t, IsChannelError(err))
}

func TestHandle_RequestAfterWorkerExit(t *testing.T) {
	h, _, _, done := newTestHandle()

	// worker 自行退出（致命 socket 错误），句柄未被 Shutdown：
	// 事件会落入无人消费的缓冲，请求必须立即以 Channel 错误返回
	close(done)

	finished := make(chan struct{})
	var mh *MapHandle
	var err error
	go func() {
		mh, err = h.Request(testInbound(), Once())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(waitTimeout):
		t.Fatal("worker 退出后 Request 永久阻塞")
	}
	assert.Nil(t, mh)
	require.Error(t, err)
	assert.True(t, IsChannelError(err))
}

func TestHandle_RequestWorkerExitDuringWait(t *testing.T) {
	h, events, _, done := newTestHandle()

	// 脚本收下事件后不回复就退出
	go func() {
		recvEvent(t, events)
		close(done)
	}()

	mh, err := h.Request(testInbound(), Once())
	assert.Nil(t, mh)
	require.Error(t, err)
	assert.True(t, IsChannelError(err))
}

func TestHandle_SubmissionOrderPreserved(t *testing.T) {
	h, events, _, _ := newTestHandle()

	// 脚本按到达顺序记录事件
	order := make(chan string, 8)
	go func() {
		ports := make(map[types.MappingID]uint16)
		for i := 0; i < 5; i++ {
			ev := recvEvent(t, events)
			switch ev.Kind {
			case types.EventInboundMap:
				id := types.NewMappingID()
				ports[id] = ev.Map.Port()
				order <- fmt.Sprintf("request %d", ev.Map.Port())
				ev.Reply <- types.RequestReply{ID: id, OK: true}
			case types.EventRelease:
				order <- fmt.Sprintf("release %d", ports[ev.ID])
			case types.EventShutdown:
				order <- "shutdown"
			}
		}
	}()

	// 同一 goroutine 依次提交：A、B、释放 A、释放 B、终止
	a, err := h.Request(&InboundMap{Protocol: ProtocolTCP, InternalPort: 8080, Lifetime: time.Hour}, Once())
	require.NoError(t, err)
	b, err := h.Request(&InboundMap{Protocol: ProtocolTCP, InternalPort: 9090, Lifetime: time.Hour}, Once())
	require.NoError(t, err)

	a.Release()
	b.Release()
	h.Shutdown()

	want := []string{"request 8080", "request 9090", "release 8080", "release 9090", "shutdown"}
	for _, w := range want {
		select {
		case got := <-order:
			assert.Equal(t, w, got)
		case <-time.After(waitTimeout):
			t.Fatalf("未观察到事件 %q", w)
		}
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              错误通道
// ════════════════════════════════════════════════════════════════════════════

func TestHandle_WaitErr(t *testing.T) {
	h, _, errs, _ := newTestHandle()

	want := types.NewSocketError(errors.New("io"))
	errs <- want

	assert.Equal(t, error(want), h.WaitErr())
}

func TestHandle_WaitErrChannelClosed(t *testing.T) {
	h, _, errs, _ := newTestHandle()
	close(errs)

	// 通道关闭时合成 Channel 错误，永不无限阻塞
	err := h.WaitErr()
	require.Error(t, err)
	assert.True(t, IsChannelError(err))
	assert.ErrorIs(t, err, types.ErrChannelSevered)
}

func TestHandle_PollErr(t *testing.T) {
	h, _, errs, _ := newTestHandle()

	t.Run("empty channel", func(t *testing.T) {
		assert.NoError(t, h.PollErr())
	})

	t.Run("pending error", func(t *testing.T) {
		want := types.NewSocketError(errors.New("io"))
		errs <- want
		assert.Equal(t, error(want), h.PollErr())
		assert.NoError(t, h.PollErr())
	})

	t.Run("closed channel", func(t *testing.T) {
		close(errs)
		assert.NoError(t, h.PollErr())
	})
}

func TestHandle_PollErrConcurrent(t *testing.T) {
	h, _, errs, _ := newTestHandle()

	const n = 50
	for i := 0; i < n; i++ {
		errs <- types.NewSocketError(fmt.Errorf("fault %d", i))
	}

	// 并发消费：先到先得，不重复、不丢失
	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				err := h.PollErr()
				if err == nil {
					return
				}
				mu.Lock()
				assert.False(t, seen[err.Error()])
				seen[err.Error()] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

// ════════════════════════════════════════════════════════════════════════════
//                              终止
// ════════════════════════════════════════════════════════════════════════════

func TestHandle_ShutdownSendsEventAndClosesQuit(t *testing.T) {
	h, events, _, _ := newTestHandle()

	h.Shutdown()

	ev := recvEvent(t, events)
	assert.Equal(t, types.EventShutdown, ev.Kind)

	select {
	case <-h.quit:
	default:
		t.Fatal("退出信号未关闭")
	}
}

func TestHandle_ShutdownIdempotent(t *testing.T) {
	h, events, _, _ := newTestHandle()

	h.Shutdown()
	h.Shutdown()
	h.Shutdown()

	// 只有一个终止事件
	recvEvent(t, events)
	select {
	case ev := <-events:
		t.Fatalf("重复 Shutdown 产生了多余事件: %v", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              映射句柄
// ════════════════════════════════════════════════════════════════════════════

// grantedMapHandle 通过脚本化授予构造一个 MapHandle
func grantedMapHandle(t *testing.T, h *Handle, events chan types.Event) (*MapHandle, chan types.Alert) {
	t.Helper()

	alertsCh := make(chan chan types.Alert, 1)
	go func() {
		ev := recvEvent(t, events)
		alertsCh <- ev.Alerts
		ev.State.Store(types.StateGranted)
		ev.Reply <- types.RequestReply{ID: types.NewMappingID(), OK: true}
	}()

	mh, err := h.Request(testInbound(), KeepAlive())
	require.NoError(t, err)
	return mh, <-alertsCh
}

func TestMapHandle_AlertFlow(t *testing.T) {
	h, events, _, _ := newTestHandle()
	mh, alerts := grantedMapHandle(t, h, events)

	alerts <- types.Alert{ID: mh.ID(), State: types.StateRenewing}
	alerts <- types.Alert{ID: mh.ID(), State: types.StateGranted}

	// 按 worker 发出顺序到达
	a, err := mh.WaitAlert()
	require.NoError(t, err)
	assert.Equal(t, StateRenewing, a.State)

	a, ok := mh.PollAlert()
	require.True(t, ok)
	assert.Equal(t, StateGranted, a.State)

	// 没有待取告警时 PollAlert 立即返回
	_, ok = mh.PollAlert()
	assert.False(t, ok)

	// 通道关闭（映射终态）后 WaitAlert 返回 Channel 错误
	close(alerts)
	_, err = mh.WaitAlert()
	require.Error(t, err)
	assert.True(t, IsChannelError(err))
}

func TestMapHandle_Release(t *testing.T) {
	h, events, _, _ := newTestHandle()
	mh, _ := grantedMapHandle(t, h, events)

	mh.Release()

	ev := recvEvent(t, events)
	assert.Equal(t, types.EventRelease, ev.Kind)
	assert.Equal(t, mh.ID(), ev.ID)

	// 幂等：重复释放不产生第二个事件
	mh.Release()
	select {
	case ev := <-events:
		t.Fatalf("重复 Release 产生了多余事件: %v", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMapHandle_ReleaseAfterShutdown(t *testing.T) {
	h, events, _, _ := newTestHandle()
	mh, _ := grantedMapHandle(t, h, events)

	h.Shutdown()
	recvEvent(t, events) // shutdown 事件

	// 会话已终止：静默成功，不阻塞
	done := make(chan struct{})
	go func() {
		mh.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("终止后的 Release 阻塞")
	}
}

package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/value"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

// harness runs a bridge over mocks and tears it down by closing both streams.
type harness struct {
	bridge  *Bridge
	binding *MockBinding
	bus     *MockBus
	logger  *testLogger
	runErr  chan error
}

func startBridge(t *testing.T, configure func(*Options)) *harness {
	t.Helper()

	h := &harness{
		binding: NewMockBinding(),
		bus:     NewMockBus(),
		logger:  &testLogger{},
		runErr:  make(chan error, 1),
	}

	opts := Options{Binding: h.binding, Bus: h.bus, Logger: h.logger}
	if configure != nil {
		configure(&opts)
	}

	b, err := New(opts)
	require.NoError(t, err)
	h.bridge = b

	go func() { h.runErr <- b.Run() }()

	t.Cleanup(func() { h.stop(t) })
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	select {
	case <-h.bridge.Done():
		return
	default:
	}
	h.binding.Close()
	h.bus.Close()
	select {
	case <-h.bridge.Done():
	case <-time.After(waitFor):
		t.Fatal("bridge did not stop after both streams closed")
	}
}

func (h *harness) waitOps(t *testing.T, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool { return len(h.bus.GetOps()) >= n }, waitFor, tick)
	return h.bus.GetOps()
}

// =============================================================================
// Construction and lifecycle
// =============================================================================

func TestNew_RequiresBindingAndBus(t *testing.T) {
	_, err := New(Options{Bus: NewMockBus()})
	assert.ErrorIs(t, err, ErrNoBinding)
	assert.ErrorIs(t, err, core.ErrConfig)

	_, err = New(Options{Binding: NewMockBinding()})
	assert.ErrorIs(t, err, ErrNoBus)
}

func TestRun_EndsWhenBothStreamsClose(t *testing.T) {
	h := startBridge(t, nil)

	h.binding.Close()
	select {
	case <-h.bridge.Done():
		t.Fatal("bridge stopped while the bus stream was still open")
	case <-time.After(20 * time.Millisecond):
	}

	h.bus.Close()
	select {
	case err := <-h.runErr:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return")
	}
	<-h.bridge.Done()
}

func TestRun_Twice(t *testing.T) {
	h := startBridge(t, nil)
	require.Eventually(t, func() bool { return h.bridge.running.Load() }, waitFor, tick)
	assert.ErrorIs(t, h.bridge.Run(), ErrAlreadyRunning)
}

// =============================================================================
// Binding → Bus
// =============================================================================

func TestBindingPump_Ordering(t *testing.T) {
	h := startBridge(t, nil)
	h.bus.delay = 10 * time.Millisecond

	item := NewMockItem("Switch", value.Number(0))
	h.binding.SimulateAdded(item)
	item.Set(value.Number(42))
	h.binding.SimulateChanged(item)
	h.binding.SimulateRemoved(item)

	ops := h.waitOps(t, 4)
	assert.Equal(t, []string{
		"meta:Switch",
		"subscribe:Switch:command",
		"update:Switch=42",
		"unsubscribe:Switch:command",
	}, ops)
}

func TestBindingPump_AddedWithoutMeta(t *testing.T) {
	h := startBridge(t, nil)

	item := NewMockItem("Bare", value.Number(0))
	item.meta = nil
	h.binding.SimulateAdded(item)

	assert.Equal(t, []string{"subscribe:Bare:command"}, h.waitOps(t, 1))
}

func TestBindingPump_ReadFailureSkipsUpdate(t *testing.T) {
	h := startBridge(t, nil)

	broken := NewMockItem("Broken", value.Number(0))
	broken.readErr = errMock
	h.binding.SimulateChanged(broken)

	ok := NewMockItem("Ok", value.String("hi"))
	h.binding.SimulateChanged(ok)

	assert.Equal(t, []string{"update:Ok=hi"}, h.waitOps(t, 1))
	assert.Contains(t, h.logger.getWarns(), "failed to read changed item")
}

func TestBindingPump_PublishFailureContinues(t *testing.T) {
	h := startBridge(t, nil)
	h.bus.mu.Lock()
	h.bus.publishErr = errMock
	h.bus.mu.Unlock()

	item := NewMockItem("Switch", value.Number(1))
	h.binding.SimulateAdded(item)

	// Meta fails; the subscription still happens.
	assert.Equal(t, []string{"subscribe:Switch:command"}, h.waitOps(t, 1))
	require.Eventually(t, func() bool { return h.bridge.Metrics().PublishErrors == 1 }, waitFor, tick)
}

func TestBindingPump_SkipUnchanged(t *testing.T) {
	rec := &MockRecorder{}
	var events []StateEvent
	h := startBridge(t, func(o *Options) {
		o.SkipUnchanged = true
		o.Recorder = rec
		o.OnState = func(ev StateEvent) { events = append(events, ev) }
	})

	item := NewMockItem("Level", value.Number(5))
	h.binding.SimulateChanged(item)
	h.binding.SimulateChanged(item)
	item.Set(value.Number(6))
	h.binding.SimulateChanged(item)

	assert.Equal(t, []string{"update:Level=5", "update:Level=6"}, h.waitOps(t, 2))

	assert.Zero(t, rec.GetFlushes())
	h.stop(t)
	assert.Equal(t, []string{"Level=5", "Level=6"}, rec.GetStates())
	assert.Equal(t, 1, rec.GetFlushes(), "recorder flushed once on stop")

	require.Len(t, events, 3)
	assert.Nil(t, events[0].Prev)
	assert.False(t, events[0].Unchanged)
	assert.True(t, events[1].Unchanged)
	require.NotNil(t, events[2].Prev)
	assert.True(t, value.Number(5).Equal(*events[2].Prev))

	m := h.bridge.Metrics()
	assert.Equal(t, uint64(2), m.UpdatesPublished)
	assert.Equal(t, uint64(1), m.UpdatesSkipped)
}

func TestBindingPump_RepublishesUnchangedByDefault(t *testing.T) {
	h := startBridge(t, nil)

	item := NewMockItem("Level", value.Number(5))
	h.binding.SimulateChanged(item)
	h.binding.SimulateChanged(item)

	assert.Equal(t, []string{"update:Level=5", "update:Level=5"}, h.waitOps(t, 2))
}

func TestBindingPump_RemovedForgetsState(t *testing.T) {
	h := startBridge(t, nil)

	item := NewMockItem("Level", value.Number(5))
	h.binding.SimulateChanged(item)
	h.waitOps(t, 1)
	_, ok := h.bridge.LastState("Level")
	assert.True(t, ok)

	h.binding.SimulateRemoved(item)
	h.waitOps(t, 2)
	_, ok = h.bridge.LastState("Level")
	assert.False(t, ok)
}

// panicItem panics when asked for its metadata.
type panicItem struct {
	*MockItem
}

func (p *panicItem) Meta() *core.Meta { panic("meta exploded") }

func TestBindingPump_RecoversPanic(t *testing.T) {
	h := startBridge(t, nil)

	h.binding.SimulateAdded(&panicItem{MockItem: NewMockItem("Bad", value.Number(0))})
	h.binding.SimulateAdded(NewMockItem("Good", value.Number(0)))

	ops := h.waitOps(t, 2)
	assert.Equal(t, []string{"meta:Good", "subscribe:Good:command"}, ops)
	assert.Contains(t, h.logger.getWarns(), "recovered panic in bridge pump")
}

// =============================================================================
// Bus → Binding
// =============================================================================

func TestBusPump_AppliesCommand(t *testing.T) {
	h := startBridge(t, nil)

	item := NewMockItem("Switch", value.Number(0))
	h.binding.SimulateAdded(item)
	h.waitOps(t, 2)

	h.bus.SimulateMessage(core.CommandMessage("Switch", value.String("0")))

	require.Eventually(t, func() bool { return h.bridge.Metrics().CommandsApplied == 1 }, waitFor, tick)
	require.Len(t, item.GetSets(), 1)
	assert.True(t, value.String("0").Equal(item.GetSets()[0]))
}

func TestBusPump_IgnoresNonCommands(t *testing.T) {
	h := startBridge(t, nil)

	item := NewMockItem("Switch", value.Number(0))
	h.binding.SimulateAdded(item)
	h.waitOps(t, 2)

	h.bus.SimulateMessage(core.UpdateMessage("Switch", value.Number(9)))
	h.bus.SimulateMessage(core.MetaMessage("Switch", &core.Meta{}))
	h.bus.SimulateMessage(core.CommandMessage("Switch", value.Number(1)))

	require.Eventually(t, func() bool { return len(item.GetSets()) == 1 }, waitFor, tick)
	assert.True(t, value.Number(1).Equal(item.GetSets()[0]))
	assert.Equal(t, uint64(1), h.bridge.Metrics().CommandsReceived)
}

func TestBusPump_UnknownItemTolerated(t *testing.T) {
	h := startBridge(t, nil)

	item := NewMockItem("Switch", value.Number(0))
	h.binding.SimulateAdded(item)
	h.waitOps(t, 2)

	h.bus.SimulateMessage(core.CommandMessage("Ghost", value.Number(1)))
	h.bus.SimulateMessage(core.CommandMessage("Switch", value.Number(2)))

	require.Eventually(t, func() bool { return h.bridge.Metrics().CommandsApplied == 1 }, waitFor, tick)
	require.Len(t, item.GetSets(), 1)
	assert.True(t, value.Number(2).Equal(item.GetSets()[0]))

	m := h.bridge.Metrics()
	assert.Equal(t, uint64(2), m.CommandsReceived)
	assert.Equal(t, uint64(1), m.CommandsDropped)
	assert.Equal(t, uint64(1), m.CommandsApplied)
}

func TestBusPump_SetValueFailureAndPanic(t *testing.T) {
	h := startBridge(t, nil)

	failing := NewMockItem("Failing", value.Number(0))
	failing.setErr = errMock
	exploding := NewMockItem("Exploding", value.Number(0))
	exploding.panicSet = true
	good := NewMockItem("Good", value.Number(0))

	h.binding.SimulateAdded(failing)
	h.binding.SimulateAdded(exploding)
	h.binding.SimulateAdded(good)
	h.waitOps(t, 6)

	h.bus.SimulateMessage(core.CommandMessage("Failing", value.Number(1)))
	h.bus.SimulateMessage(core.CommandMessage("Exploding", value.Number(1)))
	h.bus.SimulateMessage(core.CommandMessage("Good", value.Number(1)))

	require.Eventually(t, func() bool { return len(good.GetSets()) == 1 }, waitFor, tick)

	warns := h.logger.getWarns()
	assert.Contains(t, warns, "failed to apply command")
	assert.Contains(t, warns, "recovered panic in bridge pump")
	assert.Equal(t, uint64(1), h.bridge.Metrics().CommandsFailed)
}

func TestBusPump_RateLimit(t *testing.T) {
	h := startBridge(t, func(o *Options) {
		o.CommandLimiter = rate.NewLimiter(rate.Every(time.Hour), 2)
	})

	item := NewMockItem("Switch", value.Number(0))
	h.binding.SimulateAdded(item)
	h.waitOps(t, 2)

	for i := 0; i < 5; i++ {
		h.bus.SimulateMessage(core.CommandMessage("Switch", value.Number(float64(i))))
	}

	require.Eventually(t, func() bool { return h.bridge.Metrics().CommandsDropped == 3 }, waitFor, tick)
	assert.Len(t, item.GetSets(), 2)
	assert.Equal(t, uint64(5), h.bridge.Metrics().CommandsReceived)
	assert.Contains(t, h.logger.getWarns(), "dropping rate-limited command")
}

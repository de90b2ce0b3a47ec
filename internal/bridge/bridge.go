package bridge

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/value"
)

// Logger is the logging interface used by the bridge.
// It is satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Recorder receives every published item state. Flush is called once when
// Run returns.
// It is satisfied by *influxdb.Client.
type Recorder interface {
	RecordState(name string, v value.Value)
	Flush()
}

// Options configures a Bridge.
type Options struct {
	// Binding is the device side. Required.
	Binding core.Binding

	// Bus is the transport side. Required.
	Bus core.Bus

	// Logger is optional structured logger.
	Logger Logger

	// Recorder is optional; it sees every published Update.
	Recorder Recorder

	// OnState is optional; it is called for every observed item state,
	// including unchanged ones, from the binding pump.
	OnState func(StateEvent)

	// SkipUnchanged suppresses Updates equal to the last published value.
	SkipUnchanged bool

	// CommandLimiter is optional; commands it does not allow are dropped.
	CommandLimiter *rate.Limiter
}

// Bridge couples one Binding to one Bus with two pumps.
//
// The bus pump applies inbound Commands to binding items. The binding pump
// turns item notifications into Meta publishes, command subscriptions and
// Updates. Each pump is a single consumer of its stream, so per-item order
// is preserved.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	binding core.Binding
	bus     core.Bus

	recorder      Recorder
	onState       func(StateEvent)
	skipUnchanged bool
	limiter       *rate.Limiter

	states  *StateTracker
	metrics counters

	running atomic.Bool
	done    chan struct{}

	logger Logger
}

// New creates a bridge. Call Run to start pumping.
//
// Returns ErrNoBinding or ErrNoBus, both wrapped in core.ErrConfig.
func New(opts Options) (*Bridge, error) {
	if opts.Binding == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfig, ErrNoBinding)
	}
	if opts.Bus == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfig, ErrNoBus)
	}

	return &Bridge{
		binding:       opts.Binding,
		bus:           opts.Bus,
		recorder:      opts.Recorder,
		onState:       opts.OnState,
		skipUnchanged: opts.SkipUnchanged,
		limiter:       opts.CommandLimiter,
		states:        NewStateTracker(),
		done:          make(chan struct{}),
		logger:        opts.Logger,
	}, nil
}

// Run starts both pumps and blocks until both upstream streams are closed.
//
// The bus pump ends when Bus.Messages is closed; the binding pump ends when
// Binding.Notifications is closed. There is no other way to stop a pump.
func (b *Bridge) Run() error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(b.done)

	b.logInfo("bridge started")

	var g errgroup.Group
	g.Go(b.busPump)
	g.Go(b.bindingPump)
	err := g.Wait()

	if b.recorder != nil {
		b.recorder.Flush()
	}
	b.logInfo("bridge stopped")
	return err
}

// Done is closed when Run returns.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Metrics returns a snapshot of the bridge counters.
func (b *Bridge) Metrics() Metrics {
	m := b.metrics.snapshot()
	m.TrackedItems = b.states.Len()
	return m
}

// LastState returns the last value the bridge observed for name.
func (b *Bridge) LastState(name string) (value.Value, bool) {
	return b.states.Last(name)
}

// =============================================================================
// Bus → Binding
// =============================================================================

func (b *Bridge) busPump() error {
	for msg := range b.bus.Messages() {
		b.handleMessage(msg)
	}
	b.logInfo("bus message stream closed")
	return nil
}

// handleMessage applies one inbound message. Only Commands are actionable.
func (b *Bridge) handleMessage(msg core.Message) {
	defer b.recoverPanic("bus message", msg.Name)

	if msg.Kind != core.MessageCommand {
		b.logDebug("ignoring non-command bus message", "item", msg.Name, "kind", msg.Kind.String())
		return
	}
	b.metrics.commandsReceived.Add(1)

	item, ok := b.binding.Item(msg.Name)
	if !ok {
		b.metrics.commandsDropped.Add(1)
		b.logDebug("dropping command for unknown item", "item", msg.Name)
		return
	}

	if b.limiter != nil && !b.limiter.Allow() {
		b.metrics.commandsDropped.Add(1)
		b.logWarn("dropping rate-limited command", "item", msg.Name, "value", msg.Value.String())
		return
	}

	if err := item.SetValue(msg.Value); err != nil {
		b.metrics.commandsFailed.Add(1)
		b.logWarn("failed to apply command", "item", msg.Name, "value", msg.Value.String(), "error", err)
		return
	}

	b.metrics.commandsApplied.Add(1)
	b.logDebug("applied command", "item", msg.Name, "value", msg.Value.String())
}

// =============================================================================
// Binding → Bus
// =============================================================================

func (b *Bridge) bindingPump() error {
	for n := range b.binding.Notifications() {
		b.handleNotification(n)
	}
	b.logInfo("binding notification stream closed")
	return nil
}

// handleNotification mirrors one item lifecycle event onto the bus.
func (b *Bridge) handleNotification(n core.Notification) {
	var name string
	defer func() {
		if r := recover(); r != nil {
			b.logWarn("recovered panic in bridge pump", "op", "binding notification", "item", name, "panic", r)
		}
	}()

	b.metrics.notifications.Add(1)
	if n.Item == nil {
		return
	}
	name = n.Item.Name()

	switch n.Kind {
	case core.Added:
		b.itemAdded(n.Item)
	case core.Changed:
		b.itemChanged(n.Item)
	case core.Removed:
		b.itemRemoved(name)
	default:
		b.logDebug("ignoring notification of unknown kind", "item", name, "kind", n.Kind.String())
	}
}

// itemAdded publishes Meta before subscribing, so consumers see the metadata
// before any command can be accepted.
func (b *Bridge) itemAdded(item core.Item) {
	name := item.Name()

	if meta := item.Meta(); meta != nil {
		if err := b.bus.Publish(core.MetaMessage(name, meta)); err != nil {
			b.metrics.publishErrors.Add(1)
			b.logWarn("failed to publish item meta", "item", name, "error", err)
		}
	}

	if err := b.bus.Subscribe(name, core.SubCommand); err != nil {
		b.logWarn("failed to subscribe to item commands", "item", name, "error", err)
		return
	}

	b.logDebug("item added", "item", name)
}

func (b *Bridge) itemChanged(item core.Item) {
	name := item.Name()

	v, err := item.Value()
	if err != nil {
		b.logWarn("failed to read changed item", "item", name, "error", err)
		return
	}

	ev := b.states.Observe(name, v)
	if b.onState != nil {
		b.onState(ev)
	}

	if b.skipUnchanged && ev.Unchanged {
		b.metrics.updatesSkipped.Add(1)
		return
	}

	if err := b.bus.Publish(core.UpdateMessage(name, v)); err != nil {
		b.metrics.publishErrors.Add(1)
		b.logWarn("failed to publish item update", "item", name, "error", err)
		return
	}
	b.metrics.updatesPublished.Add(1)

	if b.recorder != nil {
		b.recorder.RecordState(name, v)
	}
}

func (b *Bridge) itemRemoved(name string) {
	b.states.Forget(name)

	if err := b.bus.Unsubscribe(name, core.SubCommand); err != nil {
		b.logWarn("failed to unsubscribe from item commands", "item", name, "error", err)
		return
	}

	b.logDebug("item removed", "item", name)
}

// recoverPanic keeps a pump alive when one item operation panics.
func (b *Bridge) recoverPanic(op, name string) {
	if r := recover(); r != nil {
		b.logWarn("recovered panic in bridge pump", "op", op, "item", name, "panic", r)
	}
}

// =============================================================================
// Logging
// =============================================================================

func (b *Bridge) getLogger() Logger {
	return b.logger
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

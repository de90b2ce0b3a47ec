package zwave

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
)

// defaultBufferSize is the capacity of the outbound notification channel.
// Notifications beyond it wait in the binding's unbounded queue.
const defaultBufferSize = 64

// Logger is the logging interface used by the binding.
// It is satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures a Binding.
type Option func(*Binding)

// WithLogger sets the binding's logger.
func WithLogger(l Logger) Option {
	return func(b *Binding) {
		b.logger = l
	}
}

// WithBufferSize sets the capacity of the notification channel.
func WithBufferSize(n int) Option {
	return func(b *Binding) {
		if n >= 0 {
			b.bufferSize = n
		}
	}
}

// Binding exposes a Z-Wave driver's values as core items.
//
// It owns a DeviceIndex and runs one goroutine that consumes the driver's
// notification stream and resolves each new value to a logical name. Core
// notifications are queued without limit and forwarded in the order the
// driver reported them, so the initial scan completes and WaitReady returns
// even when nobody reads Notifications yet.
//
// Thread Safety: All methods are safe for concurrent use.
type Binding struct {
	cfg        config.ZWaveConfig
	driver     Driver
	index      *DeviceIndex
	bufferSize int

	controllers   map[uint32]*ControllerItem
	controllersMu sync.RWMutex

	notifications chan core.Notification
	fatal         chan error

	queueMu     sync.Mutex
	queue       []core.Notification
	queueClosed bool
	queued      chan struct{}
	forwarded   chan struct{}

	ready     chan struct{}
	readyOnce sync.Once

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger Logger
}

var _ core.Binding = (*Binding)(nil)

// New creates a binding over driver and starts its notification loop.
//
// Parameters:
//   - cfg: binding configuration (device rules, expose_unbound, controller name)
//   - driver: connected native driver
//   - opts: optional settings
//
// Returns:
//   - *Binding: running binding; call WaitReady before relying on Items
//   - error: if driver is nil
func New(cfg config.ZWaveConfig, driver Driver, opts ...Option) (*Binding, error) {
	if driver == nil {
		return nil, fmt.Errorf("%w: nil driver", core.ErrConfig)
	}
	if cfg.ControllerName == "" {
		cfg.ControllerName = "zwave_controller"
	}

	b := &Binding{
		cfg:         cfg,
		driver:      driver,
		index:       NewDeviceIndex(),
		bufferSize:  defaultBufferSize,
		controllers: make(map[uint32]*ControllerItem),
		fatal:       make(chan error, 1),
		ready:       make(chan struct{}),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		queued:      make(chan struct{}, 1),
		forwarded:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.notifications = make(chan core.Notification, b.bufferSize)

	go b.run()
	go b.forward()

	return b, nil
}

// Item looks up a live item by name.
func (b *Binding) Item(name string) (core.Item, bool) {
	return b.index.Item(name)
}

// Items returns a snapshot of every live item keyed by name.
func (b *Binding) Items() map[string]core.Item {
	return b.index.Items()
}

// Notifications returns the item lifecycle stream. It is closed when the
// driver stops or the binding is closed.
func (b *Binding) Notifications() <-chan core.Notification {
	return b.notifications
}

// Fatal delivers at most one error, when the driver reports that its
// controller is gone. The notification stream closes right after.
func (b *Binding) Fatal() <-chan error {
	return b.fatal
}

// Ready reports whether the driver has finished its initial scan.
func (b *Binding) Ready() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the driver has reported every known value.
//
// Returns:
//   - error: ctx.Err() on cancellation, ErrDriverRemoved if the loop ended first
func (b *Binding) WaitReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-b.done:
		return ErrDriverRemoved
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the notification loop has exited.
func (b *Binding) Done() <-chan struct{} {
	return b.done
}

// Close stops the loop and closes the driver. Queued notifications that were
// not yet delivered are dropped. It is safe to call more than once.
func (b *Binding) Close() error {
	var err error
	b.stopOnce.Do(func() {
		close(b.stop)
		err = b.driver.Close()
	})
	<-b.done
	<-b.forwarded
	return err
}

// run consumes driver notifications until the driver stream closes, the
// driver is removed, or Close is called.
func (b *Binding) run() {
	defer close(b.done)
	defer b.closeQueue()

	src := b.driver.Notifications()
	for {
		select {
		case <-b.stop:
			return
		case n, ok := <-src:
			if !ok {
				b.logInfo("zwave driver notification stream closed")
				return
			}
			if !b.handle(n) {
				return
			}
		}
	}
}

// handle processes one driver notification. It returns false when the loop
// must stop. A panic while handling is logged and the notification skipped.
func (b *Binding) handle(n DriverNotification) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logWarn("recovered panic handling zwave notification",
				"kind", n.Kind.String(), "value_id", n.ValueID.String(), "panic", r)
			cont = true
		}
	}()

	switch n.Kind {
	case NotifyValueAdded:
		b.handleValueAdded(n)
	case NotifyValueChanged:
		b.handleValueChanged(n)
	case NotifyValueRemoved:
		b.handleValueRemoved(n)
	case NotifyDriverReady:
		b.handleDriverReady()
	case NotifyControllerCommand:
		b.handleControllerCommand(n)
	case NotifyDriverRemoved:
		b.handleDriverRemoved(n)
		return false
	default:
		b.logDebug("ignoring zwave notification", "kind", n.Kind.String())
	}
	return true
}

func (b *Binding) handleValueAdded(n DriverNotification) {
	id := n.ValueID
	if err := shouldExpose(id); err != nil {
		b.logDebug("not exposing zwave value", "value_id", id.String(), "reason", err.Error())
		return
	}

	desc := Descriptor{ID: id, Label: n.Label}
	name, ok := Resolve(b.cfg.Devices, desc, b.cfg.ExposeUnbound)
	if !ok {
		b.logDebug("no device rule matched zwave value", "value_id", id.String(), "label", n.Label)
		return
	}

	item, stored := b.index.Bind(id, name, NewValueItem(name, id, n.Label, b.driver))
	if !stored {
		b.logWarn("zwave value resolves to an item that is already bound",
			"name", name, "value_id", id.String())
	} else {
		b.logDebug("bound zwave value", "name", name, "value_id", id.String())
	}

	b.emit(core.Notification{Kind: core.Added, Item: item})
}

func (b *Binding) handleValueChanged(n DriverNotification) {
	item, ok := b.index.Lookup(n.ValueID)
	if !ok {
		return
	}
	b.emit(core.Notification{Kind: core.Changed, Item: item})
}

func (b *Binding) handleValueRemoved(n DriverNotification) {
	item, ok := b.index.Unbind(n.ValueID)
	if !ok {
		return
	}
	b.logDebug("unbound zwave value", "name", item.Name(), "value_id", n.ValueID.String())
	b.emit(core.Notification{Kind: core.Removed, Item: item})
}

// handleDriverReady creates a controller item per home id and releases WaitReady.
func (b *Binding) handleDriverReady() {
	ids := b.driver.HomeIDs()
	for _, homeID := range ids {
		b.controllersMu.RLock()
		_, exists := b.controllers[homeID]
		b.controllersMu.RUnlock()
		if exists {
			continue
		}

		name, pinned := b.cfg.ControllerName, uint32(0)
		if len(ids) > 1 {
			name, pinned = fmt.Sprintf("%s_%08x", b.cfg.ControllerName, homeID), homeID
		}

		ctrl := NewControllerItem(name, b.driver, pinned)
		item, stored := b.index.BindItem(name, ctrl)
		if !stored {
			b.logWarn("controller name is already bound", "name", name)
			continue
		}

		b.controllersMu.Lock()
		b.controllers[homeID] = ctrl
		b.controllersMu.Unlock()

		b.logInfo("zwave controller ready", "name", name, "home_id", fmt.Sprintf("%08x", homeID))
		b.emit(core.Notification{Kind: core.Added, Item: item})
	}

	b.readyOnce.Do(func() {
		b.logInfo("zwave driver ready", "items", b.index.Len())
		close(b.ready)
	})
}

func (b *Binding) handleControllerCommand(n DriverNotification) {
	ctrl := b.controllerFor(n.HomeID)
	if ctrl == nil {
		b.logDebug("controller state for unknown home id", "home_id", fmt.Sprintf("%08x", n.HomeID))
		return
	}
	ctrl.setState(n.State)
	b.emit(core.Notification{Kind: core.Changed, Item: ctrl})
}

func (b *Binding) handleDriverRemoved(n DriverNotification) {
	err := ErrDriverRemoved
	if n.Err != nil {
		err = fmt.Errorf("%w: %w", ErrDriverRemoved, n.Err)
	}
	b.logError("zwave driver removed", "error", err)
	select {
	case b.fatal <- err:
	default:
	}
}

// controllerFor returns the controller item for homeID. An unpinned single
// controller answers for any home id.
func (b *Binding) controllerFor(homeID uint32) *ControllerItem {
	b.controllersMu.RLock()
	defer b.controllersMu.RUnlock()

	if c, ok := b.controllers[homeID]; ok {
		return c
	}
	if len(b.controllers) == 1 {
		for _, c := range b.controllers {
			return c
		}
	}
	return nil
}

// emit queues n for delivery. It never blocks.
func (b *Binding) emit(n core.Notification) {
	b.queueMu.Lock()
	b.queue = append(b.queue, n)
	b.queueMu.Unlock()
	b.wake()
}

// closeQueue marks the end of the stream; forward closes Notifications once
// everything queued has been delivered.
func (b *Binding) closeQueue() {
	b.queueMu.Lock()
	b.queueClosed = true
	b.queueMu.Unlock()
	b.wake()
}

func (b *Binding) wake() {
	select {
	case b.queued <- struct{}{}:
	default:
	}
}

// forward moves queued notifications onto the notification channel in
// order until the queue is closed and drained, or Close is called.
func (b *Binding) forward() {
	defer close(b.forwarded)
	defer close(b.notifications)

	for {
		b.queueMu.Lock()
		batch := b.queue
		b.queue = nil
		closed := b.queueClosed
		b.queueMu.Unlock()

		for _, n := range batch {
			select {
			case b.notifications <- n:
			case <-b.stop:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}

		select {
		case <-b.queued:
		case <-b.stop:
			return
		}
	}
}

// shouldExpose accepts Basic and User values of a supported type.
func shouldExpose(id ValueID) error {
	if id.Genre != GenreBasic && id.Genre != GenreUser {
		return fmt.Errorf("genre %s is not exposed", id.Genre)
	}
	if !id.Type.Supported() {
		return fmt.Errorf("%w: %s", ErrUnimplemented, id.Type)
	}
	return nil
}

func (b *Binding) getLogger() Logger {
	return b.logger
}

func (b *Binding) logDebug(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}

func (b *Binding) logInfo(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

func (b *Binding) logWarn(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

func (b *Binding) logError(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Error(msg, keysAndValues...)
	}
}

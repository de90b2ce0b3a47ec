package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/value"
)

var errMock = errors.New("mock failure")

// MockItem is an in-memory core.Item.
type MockItem struct {
	name string
	meta *core.Meta

	mu       sync.Mutex
	value    value.Value
	sets     []value.Value
	setErr   error
	readErr  error
	panicSet bool
}

func NewMockItem(name string, v value.Value) *MockItem {
	return &MockItem{name: name, value: v, meta: &core.Meta{Backend: "mock", ValueType: v.TypeString()}}
}

func (m *MockItem) Name() string { return m.name }

func (m *MockItem) Value() (value.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return value.Value{}, m.readErr
	}
	return m.value, nil
}

func (m *MockItem) SetValue(v value.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicSet {
		panic("mock item exploded")
	}
	if m.setErr != nil {
		return m.setErr
	}
	m.sets = append(m.sets, v)
	m.value = v
	return nil
}

func (m *MockItem) Meta() *core.Meta { return m.meta.Clone() }

func (m *MockItem) Set(v value.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
}

func (m *MockItem) GetSets() []value.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]value.Value(nil), m.sets...)
}

// MockBinding is a core.Binding driven by Simulate* calls.
type MockBinding struct {
	mu            sync.Mutex
	items         map[string]core.Item
	notifications chan core.Notification
}

func NewMockBinding() *MockBinding {
	return &MockBinding{
		items:         make(map[string]core.Item),
		notifications: make(chan core.Notification, 64),
	}
}

func (m *MockBinding) Item(name string) (core.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[name]
	return it, ok
}

func (m *MockBinding) Items() map[string]core.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]core.Item, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out
}

func (m *MockBinding) Notifications() <-chan core.Notification { return m.notifications }

// SimulateAdded registers item and emits Added.
func (m *MockBinding) SimulateAdded(item core.Item) {
	m.mu.Lock()
	m.items[item.Name()] = item
	m.mu.Unlock()
	m.notifications <- core.Notification{Kind: core.Added, Item: item}
}

func (m *MockBinding) SimulateChanged(item core.Item) {
	m.notifications <- core.Notification{Kind: core.Changed, Item: item}
}

// SimulateRemoved unregisters item and emits Removed.
func (m *MockBinding) SimulateRemoved(item core.Item) {
	m.mu.Lock()
	delete(m.items, item.Name())
	m.mu.Unlock()
	m.notifications <- core.Notification{Kind: core.Removed, Item: item}
}

func (m *MockBinding) Close() { close(m.notifications) }

// MockBus is a core.Bus that records every call in order.
type MockBus struct {
	mu         sync.Mutex
	ops        []string
	published  []core.Message
	publishErr error
	subErr     error
	delay      time.Duration
	messages   chan core.Message
}

func NewMockBus() *MockBus {
	return &MockBus{messages: make(chan core.Message, 64)}
}

func (m *MockBus) Publish(msg core.Message) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, msg)
	switch msg.Kind {
	case core.MessageMeta:
		m.ops = append(m.ops, "meta:"+msg.Name)
	default:
		text, _ := msg.Value.AsString()
		m.ops = append(m.ops, fmt.Sprintf("%s:%s=%s", msg.Kind, msg.Name, text))
	}
	return nil
}

func (m *MockBus) Subscribe(name string, sub core.SubType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subErr != nil {
		return m.subErr
	}
	m.ops = append(m.ops, fmt.Sprintf("subscribe:%s:%s", name, sub))
	return nil
}

func (m *MockBus) Unsubscribe(name string, sub core.SubType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subErr != nil {
		return m.subErr
	}
	m.ops = append(m.ops, fmt.Sprintf("unsubscribe:%s:%s", name, sub))
	return nil
}

func (m *MockBus) Messages() <-chan core.Message { return m.messages }

func (m *MockBus) SimulateMessage(msg core.Message) { m.messages <- msg }

func (m *MockBus) Close() { close(m.messages) }

func (m *MockBus) GetOps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

// MockRecorder records RecordState and Flush calls.
type MockRecorder struct {
	mu      sync.Mutex
	states  []string
	flushes int
}

func (r *MockRecorder) RecordState(name string, v value.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text, _ := v.AsString()
	r.states = append(r.states, name+"="+text)
}

func (r *MockRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
}

func (r *MockRecorder) GetFlushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

func (r *MockRecorder) GetStates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

// testLogger records warnings.
type testLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *testLogger) Debug(string, ...any) {}
func (l *testLogger) Info(string, ...any)  {}
func (l *testLogger) Error(string, ...any) {}

func (l *testLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *testLogger) getWarns() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

package zwave

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/catt-bridge/internal/core"
)

// MockDriver is an in-memory Driver for tests.
type MockDriver struct {
	mu      sync.Mutex
	values  map[ValueID]any
	writes  []mockWrite
	homeIDs []uint32
	calls   []string

	// commandErr is returned by AddNode, RemoveNode and CancelCommand.
	commandErr error
	// readErr is returned by ReadValue when set.
	readErr error

	ch        chan DriverNotification
	closeOnce sync.Once
}

type mockWrite struct {
	id ValueID
	v  any
}

func NewMockDriver(homeIDs ...uint32) *MockDriver {
	return &MockDriver{
		values:  make(map[ValueID]any),
		homeIDs: homeIDs,
		ch:      make(chan DriverNotification, 64),
	}
}

func (m *MockDriver) Notifications() <-chan DriverNotification {
	return m.ch
}

func (m *MockDriver) ReadValue(id ValueID) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	v, ok := m.values[id]
	if !ok {
		return nil, ErrUnknownValue
	}
	return v, nil
}

func (m *MockDriver) WriteValue(id ValueID, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, mockWrite{id: id, v: v})
	m.values[id] = v
	return nil
}

func (m *MockDriver) AddNode(homeID uint32) error {
	return m.record("add", homeID)
}

func (m *MockDriver) RemoveNode(homeID uint32) error {
	return m.record("remove", homeID)
}

func (m *MockDriver) CancelCommand(homeID uint32) error {
	return m.record("cancel", homeID)
}

func (m *MockDriver) record(op string, homeID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("%s:%08x", op, homeID))
	return m.commandErr
}

func (m *MockDriver) HomeIDs() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32(nil), m.homeIDs...)
}

func (m *MockDriver) Close() error {
	m.closeOnce.Do(func() { close(m.ch) })
	return nil
}

// Set stores a native value without recording a write.
func (m *MockDriver) Set(id ValueID, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[id] = v
}

// GetWrites returns a copy of every WriteValue call.
func (m *MockDriver) GetWrites() []mockWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockWrite(nil), m.writes...)
}

// GetCalls returns the controller commands issued, as "op:homeid".
func (m *MockDriver) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Simulate pushes a driver notification.
func (m *MockDriver) Simulate(n DriverNotification) {
	m.ch <- n
}

// testLogger records log calls by level.
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

// nextNotification waits for one binding notification.
func nextNotification(t *testing.T, ch <-chan core.Notification) core.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		if !ok {
			t.Fatal("notification channel closed")
		}
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return core.Notification{}
}

// noNotification asserts nothing arrives within a short window.
func noNotification(t *testing.T, ch <-chan core.Notification) {
	t.Helper()
	select {
	case n, ok := <-ch:
		if ok {
			t.Fatalf("unexpected notification %s for %s", n.Kind, n.Item.Name())
		}
	case <-time.After(50 * time.Millisecond):
	}
}

var errMock = errors.New("mock failure")

package mqttbus

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/catt-bridge/internal/infrastructure/mqtt"
)

// published records one Publish call.
type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// MockClient is an in-memory Client.
//
// Subscribe registers a handler per exact filter; Simulate delivers a message
// to every handler whose filter matches the topic.
type MockClient struct {
	mu           sync.Mutex
	published    []published
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
	publishErr   error
	subscribeErr error
}

func NewMockClient() *MockClient {
	return &MockClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *MockClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, published{topic: topic, payload: payload, qos: qos, retained: retained})
	return nil
}

func (m *MockClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.handlers[topic] = handler
	return nil
}

func (m *MockClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	delete(m.handlers, topic)
	m.unsubscribed = append(m.unsubscribed, topic)
	return nil
}

func (m *MockClient) GetPublished() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]published, len(m.published))
	copy(out, m.published)
	return out
}

func (m *MockClient) GetFilters() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.handlers))
	for f := range m.handlers {
		out = append(out, f)
	}
	return out
}

func (m *MockClient) GetUnsubscribed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unsubscribed...)
}

// Simulate delivers payload on topic to every matching handler.
func (m *MockClient) Simulate(topic string, payload []byte) error {
	m.mu.Lock()
	var matched []mqtt.MessageHandler
	for filter, h := range m.handlers {
		if filterMatches(filter, topic) {
			matched = append(matched, h)
		}
	}
	m.mu.Unlock()

	if len(matched) == 0 {
		return fmt.Errorf("no subscription matches %s", topic)
	}
	for _, h := range matched {
		if err := h(topic, payload); err != nil {
			return err
		}
	}
	return nil
}

// SimulateRaw invokes one registered handler directly, bypassing matching.
func (m *MockClient) SimulateRaw(filter, topic string, payload []byte) error {
	m.mu.Lock()
	h, ok := m.handlers[filter]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no handler for %s", filter)
	}
	return h(topic, payload)
}

// filterMatches implements MQTT filter matching for '+' and a trailing '#'.
func filterMatches(filter, topic string) bool {
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	for i, f := range fl {
		if f == "#" {
			return true
		}
		if i >= len(tl) {
			return false
		}
		if f != "+" && f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
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

var errMock = errors.New("mock transport failure")

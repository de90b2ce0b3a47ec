package bridge

import (
	"sync"

	"github.com/nerrad567/catt-bridge/internal/value"
)

// StateEvent describes one observed item state.
//
// Prev is nil the first time an item is seen and when New equals the last
// observed value; Unchanged distinguishes the two.
type StateEvent struct {
	Name      string
	Prev      *value.Value
	New       value.Value
	Unchanged bool
}

// StateTracker remembers the last observed value of each item.
//
// Thread Safety: All methods are safe for concurrent use.
type StateTracker struct {
	mu     sync.Mutex
	states map[string]value.Value
}

// NewStateTracker creates an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{states: make(map[string]value.Value)}
}

// Observe records v as the current state of name and reports the transition.
func (t *StateTracker) Observe(name string, v value.Value) StateEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	ev := StateEvent{Name: name, New: v}

	prev, seen := t.states[name]
	t.states[name] = v

	switch {
	case !seen:
	case prev.Equal(v):
		ev.Unchanged = true
	default:
		ev.Prev = &prev
	}
	return ev
}

// Last returns the last observed value of name.
func (t *StateTracker) Last(name string) (value.Value, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.states[name]
	return v, ok
}

// Forget drops the tracked state of name.
func (t *StateTracker) Forget(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, name)
}

// Len returns the number of tracked items.
func (t *StateTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}

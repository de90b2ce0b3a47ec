package core

import (
	"maps"

	"github.com/nerrad567/catt-bridge/internal/value"
)

// Item is a named, readable and writable device attribute.
//
// Implementations must be safe for concurrent use: SetValue may be called from
// the bus pump while the binding reads Value for a state update.
type Item interface {
	// Name returns the logical item name. Names are unique within a binding.
	Name() string

	// Value reads the current value from the underlying device.
	Value() (value.Value, error)

	// SetValue writes v to the underlying device, coercing as needed.
	SetValue(v value.Value) error

	// Meta describes the item, or returns nil when nothing is known.
	Meta() *Meta
}

// Meta is descriptive metadata for an item. It is never required for
// correctness; every field is optional.
type Meta struct {
	Backend   string            `json:"backend,omitempty" yaml:"backend,omitempty" cbor:"backend,omitempty"`
	ValueType string            `json:"value_type,omitempty" yaml:"value_type,omitempty" cbor:"value_type,omitempty"`
	Ext       map[string]string `json:"ext,omitempty" yaml:"ext,omitempty" cbor:"ext,omitempty"`
}

// Clone returns a deep copy of m. A nil Meta clones to nil.
func (m *Meta) Clone() *Meta {
	if m == nil {
		return nil
	}
	out := *m
	if m.Ext != nil {
		out.Ext = maps.Clone(m.Ext)
	}
	return &out
}

// NotificationKind is the lifecycle event carried by a Notification.
type NotificationKind uint8

// Notification kinds.
const (
	Added NotificationKind = iota + 1
	Changed
	Removed
)

// String returns the notification kind name.
func (k NotificationKind) String() string {
	switch k {
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Notification reports a lifecycle event for one item.
type Notification struct {
	Kind NotificationKind
	Item Item
}

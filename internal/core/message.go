package core

import (
	"fmt"

	"github.com/nerrad567/catt-bridge/internal/value"
)

// MessageKind is the class of a bus message.
type MessageKind uint8

// Message kinds.
const (
	// MessageUpdate carries the current state of an item.
	MessageUpdate MessageKind = iota + 1

	// MessageCommand requests a change to an item.
	MessageCommand

	// MessageMeta carries item metadata.
	MessageMeta
)

// String returns the message kind name.
func (k MessageKind) String() string {
	switch k {
	case MessageUpdate:
		return "update"
	case MessageCommand:
		return "command"
	case MessageMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// Message is the bus-side envelope. Name is the logical item name; Value is set
// for MessageUpdate and MessageCommand, Meta for MessageMeta.
type Message struct {
	Kind  MessageKind
	Name  string
	Value value.Value
	Meta  *Meta
}

// UpdateMessage builds a state update for name.
func UpdateMessage(name string, v value.Value) Message {
	return Message{Kind: MessageUpdate, Name: name, Value: v}
}

// CommandMessage builds a command for name.
func CommandMessage(name string, v value.Value) Message {
	return Message{Kind: MessageCommand, Name: name, Value: v}
}

// MetaMessage builds a metadata message for name.
func MetaMessage(name string, m *Meta) Message {
	return Message{Kind: MessageMeta, Name: name, Meta: m}
}

// String renders the message for logs.
func (m Message) String() string {
	if m.Kind == MessageMeta {
		return fmt.Sprintf("%s(%s, %+v)", m.Kind, m.Name, m.Meta)
	}
	return fmt.Sprintf("%s(%s, %s)", m.Kind, m.Name, m.Value)
}

// SubType selects which message classes a subscription covers.
type SubType uint8

// Subscription types.
const (
	SubUpdate SubType = iota + 1
	SubCommand
	SubMeta
	SubAll
)

// String returns the subscription type name.
func (s SubType) String() string {
	switch s {
	case SubUpdate:
		return "update"
	case SubCommand:
		return "command"
	case SubMeta:
		return "meta"
	case SubAll:
		return "all"
	default:
		return "unknown"
	}
}

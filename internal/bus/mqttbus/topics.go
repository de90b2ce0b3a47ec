package mqttbus

import (
	"fmt"
	"strings"

	"github.com/nerrad567/catt-bridge/internal/core"
)

// DefaultBase is the topic prefix used when none is configured.
const DefaultBase = "catt/items"

// Topic suffixes per message kind.
const (
	suffixState   = "state"
	suffixCommand = "command"
	suffixMeta    = "meta"
)

// Topics builds and parses item topics of the form {base}/{name}/{suffix}.
//
//	t := mqttbus.Topics{Base: "catt/items"}
//	t.State("Switch")    // "catt/items/Switch/state"
//	t.Wildcard("Switch") // "catt/items/Switch/#"
type Topics struct {
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return DefaultBase
	}
	return strings.TrimSuffix(t.Base, "/")
}

// State returns the topic carrying Update messages for name.
func (t Topics) State(name string) string {
	return fmt.Sprintf("%s/%s/%s", t.base(), name, suffixState)
}

// Command returns the topic carrying Command messages for name.
func (t Topics) Command(name string) string {
	return fmt.Sprintf("%s/%s/%s", t.base(), name, suffixCommand)
}

// Meta returns the topic carrying Meta messages for name.
func (t Topics) Meta(name string) string {
	return fmt.Sprintf("%s/%s/%s", t.base(), name, suffixMeta)
}

// Wildcard returns a filter covering every suffix for name.
func (t Topics) Wildcard(name string) string {
	return fmt.Sprintf("%s/%s/#", t.base(), name)
}

// ForKind returns the topic for a message kind.
func (t Topics) ForKind(name string, kind core.MessageKind) (string, error) {
	switch kind {
	case core.MessageUpdate:
		return t.State(name), nil
	case core.MessageCommand:
		return t.Command(name), nil
	case core.MessageMeta:
		return t.Meta(name), nil
	default:
		return "", fmt.Errorf("%w: message kind %s", ErrUnsupportedMessage, kind)
	}
}

// ForSub returns the subscription filter for a SubType.
func (t Topics) ForSub(name string, sub core.SubType) (string, error) {
	switch sub {
	case core.SubUpdate:
		return t.State(name), nil
	case core.SubCommand:
		return t.Command(name), nil
	case core.SubMeta:
		return t.Meta(name), nil
	case core.SubAll:
		return t.Wildcard(name), nil
	default:
		return "", fmt.Errorf("%w: subscription type %s", ErrUnsupportedMessage, sub)
	}
}

// Parse splits an inbound topic into item name and message kind.
//
// The name is the second-to-last level and the kind the last one; the base is
// not checked, so messages from a wildcard subscription above the base parse
// the same way.
//
// Returns ErrMalformedTopic for topics with fewer than two levels, an empty
// name, or a suffix other than state, command or meta.
func (t Topics) Parse(topic string) (string, core.MessageKind, error) {
	levels := strings.Split(topic, "/")
	if len(levels) < 2 {
		return "", 0, fmt.Errorf("%w: %q has fewer than two levels", ErrMalformedTopic, topic)
	}

	name := levels[len(levels)-2]
	if name == "" {
		return "", 0, fmt.Errorf("%w: %q has an empty item name", ErrMalformedTopic, topic)
	}

	switch levels[len(levels)-1] {
	case suffixState:
		return name, core.MessageUpdate, nil
	case suffixCommand:
		return name, core.MessageCommand, nil
	case suffixMeta:
		return name, core.MessageMeta, nil
	default:
		return "", 0, fmt.Errorf("%w: %q has unknown suffix %q", ErrMalformedTopic, topic, levels[len(levels)-1])
	}
}

// validName reports whether name can be used as a single topic level.
func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/+#\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

package mqttbus

import "github.com/nerrad567/catt-bridge/internal/core"

// busError is a bus failure that also matches core.ErrBus.
type busError struct {
	msg string
}

func (e *busError) Error() string { return e.msg }

// Is lets errors.Is(err, core.ErrBus) succeed for every mqttbus error.
func (e *busError) Is(target error) bool { return target == core.ErrBus }

func newError(msg string) error { return &busError{msg: msg} }

// Sentinel errors. Every one of them also satisfies errors.Is(err, core.ErrBus).
var (
	// ErrMalformedTopic is returned by Topics.Parse for topics that do not
	// follow {base}/{name}/{state|command|meta}.
	ErrMalformedTopic = newError("mqttbus: malformed topic")

	// ErrInvalidName is returned for item names that cannot form a topic level.
	ErrInvalidName = newError("mqttbus: invalid item name")

	// ErrUnknownEncoding is returned for a meta encoding other than json or cbor.
	ErrUnknownEncoding = newError("mqttbus: unknown meta encoding")

	// ErrUnsupportedMessage is returned when publishing a message of unknown kind
	// or subscribing with an unknown SubType.
	ErrUnsupportedMessage = newError("mqttbus: unsupported message")

	// ErrPublish wraps transport publish failures.
	ErrPublish = newError("mqttbus: publish failed")

	// ErrSubscribe wraps transport subscribe and unsubscribe failures.
	ErrSubscribe = newError("mqttbus: subscribe failed")

	// ErrClosed is returned by operations on a closed bus.
	ErrClosed = newError("mqttbus: bus closed")
)

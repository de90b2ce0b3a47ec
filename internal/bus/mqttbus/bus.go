package mqttbus

import (
	"fmt"
	"sync"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/catt-bridge/internal/value"
)

// defaultBuffer is the capacity of the inbound message channel.
const defaultBuffer = 256

// Client is the subset of *mqtt.Client the bus needs.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface used by the bus.
// It is satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options configures a Bus.
type Options struct {
	// Base is the topic prefix. Default: DefaultBase.
	Base string

	// QoS is used for every publish and subscribe.
	QoS byte

	// MetaEncoding is "json" (default) or "cbor".
	MetaEncoding string

	// Buffer is the inbound channel capacity. Default: 256.
	Buffer int

	// Logger is optional.
	Logger Logger
}

// Bus maps core messages onto item topics of an MQTT client.
//
// Thread Safety: All methods are safe for concurrent use. Inbound handlers run
// on client goroutines and hand messages to a single buffered channel.
type Bus struct {
	client Client
	topics Topics
	qos    byte
	codec  MetaCodec

	messages chan core.Message
	done     chan struct{}

	// mu guards closed; inbound handlers hold it for reading while sending.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	logger Logger
}

var _ core.Bus = (*Bus)(nil)

// New creates a bus over client.
//
// Returns ErrUnknownEncoding (matching core.ErrBus) for a bad MetaEncoding.
func New(client Client, opts Options) (*Bus, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: mqttbus: nil client", core.ErrConfig)
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("%w: mqttbus: qos %d out of range", core.ErrConfig, opts.QoS)
	}

	codec, err := NewMetaCodec(opts.MetaEncoding)
	if err != nil {
		return nil, err
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	return &Bus{
		client:   client,
		topics:   Topics{Base: opts.Base},
		qos:      opts.QoS,
		codec:    codec,
		messages: make(chan core.Message, buffer),
		done:     make(chan struct{}),
		logger:   opts.Logger,
	}, nil
}

// Topics returns the topic layout used by the bus.
func (b *Bus) Topics() Topics {
	return b.topics
}

// Publish sends msg to the topic for its name and kind.
//
// Update and Command carry the value's text form. Meta carries the encoded
// document and is retained so late subscribers see it.
func (b *Bus) Publish(msg core.Message) error {
	if b.isClosed() {
		return ErrClosed
	}
	if err := validName(msg.Name); err != nil {
		return err
	}

	topic, err := b.topics.ForKind(msg.Name, msg.Kind)
	if err != nil {
		return err
	}

	var (
		payload  []byte
		retained bool
	)
	switch msg.Kind {
	case core.MessageMeta:
		payload, err = b.codec.Encode(msg.Meta)
		if err != nil {
			return fmt.Errorf("%w: encoding meta for %s: %w", ErrPublish, msg.Name, err)
		}
		retained = true
	default:
		text, err := msg.Value.AsString()
		if err != nil {
			return fmt.Errorf("%w: rendering %s: %w", ErrPublish, msg.Name, err)
		}
		payload = []byte(text)
	}

	if err := b.client.Publish(topic, payload, b.qos, retained); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublish, topic, err)
	}

	b.logDebug("published", "topic", topic, "kind", msg.Kind.String())
	return nil
}

// Subscribe starts delivering inbound messages of type sub for name.
func (b *Bus) Subscribe(name string, sub core.SubType) error {
	if b.isClosed() {
		return ErrClosed
	}
	if err := validName(name); err != nil {
		return err
	}

	filter, err := b.topics.ForSub(name, sub)
	if err != nil {
		return err
	}

	if err := b.client.Subscribe(filter, b.qos, b.handle); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribe, filter, err)
	}

	b.logDebug("subscribed", "topic", filter)
	return nil
}

// Unsubscribe stops delivering inbound messages of type sub for name.
func (b *Bus) Unsubscribe(name string, sub core.SubType) error {
	if b.isClosed() {
		return ErrClosed
	}
	if err := validName(name); err != nil {
		return err
	}

	filter, err := b.topics.ForSub(name, sub)
	if err != nil {
		return err
	}

	if err := b.client.Unsubscribe(filter); err != nil {
		return fmt.Errorf("%w: unsubscribing %s: %w", ErrSubscribe, filter, err)
	}

	b.logDebug("unsubscribed", "topic", filter)
	return nil
}

// Messages returns the inbound message stream. It is closed by Close.
func (b *Bus) Messages() <-chan core.Message {
	return b.messages
}

// Close stops inbound delivery and closes the message channel.
// It is safe to call more than once; later Publish and Subscribe calls
// return ErrClosed.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)

		b.mu.Lock()
		b.closed = true
		close(b.messages)
		b.mu.Unlock()
	})
	return nil
}

func (b *Bus) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// handle turns one inbound MQTT message into a core message.
//
// Malformed topics and undecodable meta are logged and dropped; the returned
// error is always nil so the client does not log them a second time.
func (b *Bus) handle(topic string, payload []byte) error {
	name, kind, err := b.topics.Parse(topic)
	if err != nil {
		b.logWarn("dropping message on malformed topic", "topic", topic, "error", err)
		return nil
	}

	var msg core.Message
	switch kind {
	case core.MessageMeta:
		meta, err := b.codec.Decode(payload)
		if err != nil {
			b.logWarn("dropping undecodable meta", "topic", topic, "encoding", b.codec.Name(), "error", err)
			return nil
		}
		msg = core.MetaMessage(name, meta)
	case core.MessageCommand:
		msg = core.CommandMessage(name, value.FromRaw(payload))
	default:
		msg = core.UpdateMessage(name, value.FromRaw(payload))
	}

	b.deliver(msg)
	return nil
}

// deliver sends msg on the message channel unless the bus is closing.
func (b *Bus) deliver(msg core.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	select {
	case b.messages <- msg:
	case <-b.done:
	}
}

func (b *Bus) logDebug(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bus) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

package core

// Binding exposes a device driver's items and their lifecycle.
//
// The notification channel is closed when the driver shuts down; that is the
// only way a consumer learns the binding has stopped.
type Binding interface {
	// Item looks up a live item by name.
	Item(name string) (Item, bool)

	// Items returns a snapshot of every live item keyed by name.
	Items() map[string]Item

	// Notifications returns the stream of item lifecycle events. Events for a
	// single item are delivered in the order the driver emitted them.
	Notifications() <-chan Notification
}

// Bus exposes a pub/sub transport addressed by item name.
//
// The message channel is closed when the transport shuts down.
type Bus interface {
	// Publish sends msg to the transport address derived from its name and kind.
	Publish(msg Message) error

	// Subscribe starts delivering inbound messages of the given type for name.
	Subscribe(name string, sub SubType) error

	// Unsubscribe stops delivering inbound messages of the given type for name.
	Unsubscribe(name string, sub SubType) error

	// Messages returns the inbound message stream.
	Messages() <-chan Message
}

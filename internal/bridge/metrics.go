package bridge

import "sync/atomic"

// Metrics is a point-in-time snapshot of bridge counters.
type Metrics struct {
	CommandsReceived uint64 `json:"commands_received"`
	CommandsApplied  uint64 `json:"commands_applied"`
	CommandsDropped  uint64 `json:"commands_dropped"`
	CommandsFailed   uint64 `json:"commands_failed"`
	UpdatesPublished uint64 `json:"updates_published"`
	UpdatesSkipped   uint64 `json:"updates_skipped"`
	PublishErrors    uint64 `json:"publish_errors"`
	Notifications    uint64 `json:"notifications"`
	TrackedItems     int    `json:"tracked_items"`
}

// counters holds the live atomic counters behind Metrics.
type counters struct {
	commandsReceived atomic.Uint64
	commandsApplied  atomic.Uint64
	commandsDropped  atomic.Uint64
	commandsFailed   atomic.Uint64
	updatesPublished atomic.Uint64
	updatesSkipped   atomic.Uint64
	publishErrors    atomic.Uint64
	notifications    atomic.Uint64
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		CommandsReceived: c.commandsReceived.Load(),
		CommandsApplied:  c.commandsApplied.Load(),
		CommandsDropped:  c.commandsDropped.Load(),
		CommandsFailed:   c.commandsFailed.Load(),
		UpdatesPublished: c.updatesPublished.Load(),
		UpdatesSkipped:   c.updatesSkipped.Load(),
		PublishErrors:    c.publishErrors.Load(),
		Notifications:    c.notifications.Load(),
	}
}

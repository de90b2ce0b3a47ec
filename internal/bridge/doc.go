// Package bridge couples any core.Binding to any core.Bus.
//
// # Pumps
//
// Run starts two goroutines under an errgroup:
//
//	Bus.Messages()         ──► bus pump     ──► Item.SetValue        (Commands only)
//	Binding.Notifications() ──► binding pump ──► Publish / Subscribe
//
// The binding pump maps lifecycle events as follows:
//
//   - Added: publish Meta (when the item has any), then subscribe Command
//   - Changed: read the value, publish Update
//   - Removed: unsubscribe Command
//
// Each pump is the only consumer of its stream, so events for one item are
// mirrored in the order the binding emitted them.
//
// # Failure Policy
//
// Nothing inside a pump stops it. A failure on one item, including a panic,
// is logged at warn level and the message is dropped; commands for unknown
// items are dropped at debug level. A pump ends only when its upstream
// channel is closed, and Run returns once both have ended.
//
// # State Events
//
// Every value read for an Update passes through a StateTracker, which yields
// a StateEvent carrying the previous value when it differs. With
// SkipUnchanged, Updates equal to the last observed value are not
// republished. Options.OnState and Options.Recorder observe the stream.
//
// # Usage
//
//	b, err := bridge.New(bridge.Options{
//	    Binding:       binding,
//	    Bus:           bus,
//	    Logger:        log,
//	    SkipUnchanged: cfg.Bridge.SkipUnchanged,
//	})
//	if err != nil {
//	    return err
//	}
//	go b.Run()
//	...
//	<-b.Done()
package bridge

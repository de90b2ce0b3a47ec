// Package zwave implements the core.Binding capability over a Z-Wave
// controller.
//
// # Architecture
//
//	Driver (zwave-js-server)  ──DriverNotification──▶  Binding loop
//	                                                      │
//	                                   Matcher ◀──────────┤ resolve name
//	                                   DeviceIndex ◀──────┤ bind / lookup / unbind
//	                                                      ▼
//	                                            core.Notification stream
//
// The Driver interface is the native stack. JSDriver speaks the
// zwave-js-server websocket API; tests substitute a mock.
//
// # Name Resolution
//
// Each new value is scored against the configured device rules (see Match).
// Only User genre values on the rule's node can match; every optional field a
// rule sets must match for the rule to score at all, and each adds one to the
// strength. The first strongest rule names the value. Values no rule claims
// are ignored unless expose_unbound is set, in which case they are named
// zwave_{home id}_{node id}_{label}.
//
// # Duplicates
//
// Two native values resolving to one name produce a single DeviceIndex entry.
// The first binding wins; the later value's Added notification carries the
// existing item and its Changed/Removed events are ignored.
//
// # Controller
//
// When the driver reports ready, one ControllerItem per home id is bound. Its
// value is the inclusion state ("idle", "include", "exclude", "failed") and
// writing "include", "exclude" or "idle" drives the controller.
//
// # Lifecycle
//
// New starts the notification loop. WaitReady blocks until the initial scan
// completes. If the driver reports NotifyDriverRemoved the error is delivered
// on Fatal and the notification stream closes. A panic while handling one
// driver event is logged and the event skipped.
package zwave

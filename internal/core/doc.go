// Package core defines the capability model shared by every binding, bus and
// bridge in catt.
//
// # Items
//
// An Item is a named handle over one device attribute. It reads and writes a
// value.Value and may describe itself with Meta. Items are cheap to copy and
// reference shared driver state rather than caching it; two items are the same
// item when their names are equal.
//
// # Capabilities
//
//   - Binding: a device driver exposing items and a Notification stream
//     (Added, Changed, Removed)
//   - Bus: a pub/sub transport accepting Message publishes and per-item
//     subscriptions, and emitting inbound Messages
//
// A bridge couples any Binding to any Bus; nothing in this package knows about
// Z-Wave or MQTT.
//
// # Error Taxonomy
//
//   - value.ErrInvalidConversion / value.ErrParseNumber: coercion failures
//   - ErrDevice: driver-specific failures (unsupported type, invalid command, I/O)
//   - ErrBus: transport failures (connect, publish, subscribe)
//   - ErrConfig: malformed configuration, surfaced at startup only
package core

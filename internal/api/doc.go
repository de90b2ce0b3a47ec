// Package api implements the optional HTTP status and control API of the
// bridge.
//
// # Endpoints
//
//	GET  /api/v1/health        bus connectivity and binding readiness
//	GET  /api/v1/metrics       runtime, bus and bridge counters
//	GET  /api/v1/items         every live item with its metadata
//	GET  /api/v1/items/{name}  current value as text, with metadata
//	PUT  /api/v1/items/{name}  apply the raw body as a command
//	GET  /api/v1/ws            live item state stream (WebSocket)
//
// A PUT body goes through the same ingest as a bus command: on/off words
// become bools, numeric text becomes a number, other text a string, and
// non-text bytes stay raw.
//
// # State Stream
//
// The WebSocket hub's Broadcast method is handed to the bridge as its
// OnState callback. Clients receive item.state_changed events for the items
// they subscribe to ("*" by default) and may send subscribe, unsubscribe and
// ping messages.
//
// # Middleware
//
// Every request gets an X-Request-ID (kept from the client or a new UUID),
// a debug log line, panic recovery and a 1 MB body limit.
package api

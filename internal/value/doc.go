// Package value implements the tagged value type exchanged between device
// bindings and message buses.
//
// A Value is one of four kinds: Number, String, Raw or Bool. Every kind can be
// converted to every other kind with deterministic, possibly lossy rules, so a
// command arriving as text on the bus can be applied to a numeric device value
// and a device reading can be rendered as text for publishing.
//
// # Conversion Rules
//
//   - Raw → String: printable UTF-8 passes through, anything else is Base64
//   - Raw → Number: first 8 bytes as big-endian IEEE-754 float64
//   - Raw → Bool: first byte non-zero (empty is false)
//   - String → Number: trimmed decimal parse
//   - String → Bool: on/open/true and off/closed/false, case-insensitive
//   - Bool → String: "ON" / "OFF"
//   - Number → Raw: big-endian float64; Bool → Raw: single 0/1 byte
//
// # Ingest
//
// FromRaw is applied once, at the transport boundary, to bytes received from a
// byte-oriented bus. Text that looks like a boolean token becomes a Bool, text
// that parses as a number becomes a Number, other text stays a String, and
// binary data stays Raw:
//
//	value.FromRaw([]byte("ON"))    // Bool(true)
//	value.FromRaw([]byte("42"))    // Number(42)
//	value.FromRaw([]byte("hello")) // String("hello")
//
// # Thread Safety
//
// Values are immutable and safe to share between goroutines. Raw constructors
// and accessors copy their byte slices.
package value

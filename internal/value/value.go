package value

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value kinds.
const (
	KindNumber Kind = iota
	KindString
	KindRaw
	KindBool
)

// String returns the lowercase kind name used in metadata documents.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindRaw:
		return "raw"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// float64Size is the byte length of a big-endian float64 encoding.
const float64Size = 8

// Value is an immutable tagged union of number, string, raw bytes or bool.
//
// The zero Value is Number(0).
type Value struct {
	kind Kind
	num  float64
	str  string
	raw  []byte
	b    bool
}

// Number returns a numeric Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// String returns a text Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Raw returns a byte Value. The slice is copied.
func Raw(b []byte) Value {
	return Value{kind: KindRaw, raw: bytes.Clone(b)}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// FromRaw builds a Value from bytes received over a byte-oriented transport.
//
// Printable UTF-8 text is decoded to a String and then narrowed: a boolean
// token becomes Bool, a decimal number becomes Number, anything else stays
// String. Bytes that are not printable text are kept as Raw, and so is an
// 8-byte payload that narrows to neither Bool nor Number, since that is the
// width of an encoded Number.
//
// FromRaw must only be used at the transport boundary; values supplied by a
// driver are already typed.
func FromRaw(b []byte) Value {
	if !isText(b) {
		return Raw(b)
	}
	v := unStringify(String(string(b)))
	if v.kind == KindString && len(b) == float64Size {
		return Raw(b)
	}
	return v
}

// unStringify narrows a String to Bool or Number when the text allows it.
func unStringify(v Value) Value {
	if v.kind != KindString {
		return v
	}
	if b, err := v.AsBool(); err == nil {
		return Bool(b)
	}
	if n, err := v.AsNumber(); err == nil {
		return Number(n)
	}
	return v
}

// isText reports whether b is valid UTF-8 made of printable or whitespace runes.
func isText(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// TypeString returns the kind name ("number", "string", "raw", "bool").
func (v Value) TypeString() string {
	return v.kind.String()
}

// AsNumber converts v to a float64.
//
//   - Number: the number itself
//   - String: trimmed decimal parse, ErrParseNumber on failure
//   - Raw: first 8 bytes as big-endian float64, ErrInvalidConversion if shorter
//   - Bool: 1 or 0
func (v Value) AsNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, conversionError(v, "number", fmt.Errorf("%w: %w", ErrParseNumber, err))
		}
		return n, nil
	case KindRaw:
		if len(v.raw) < float64Size {
			return 0, conversionError(v, "number", ErrInvalidConversion)
		}
		return math.Float64frombits(binary.BigEndian.Uint64(v.raw[:float64Size])), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, conversionError(v, "number", ErrInvalidConversion)
	}
}

// AsString converts v to text.
//
//   - Number: shortest decimal rendering ("42", "1.5")
//   - String: the text itself
//   - Raw: printable UTF-8 as-is, otherwise standard Base64
//   - Bool: "ON" or "OFF"
func (v Value) AsString() (string, error) {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64), nil
	case KindString:
		return v.str, nil
	case KindRaw:
		if isText(v.raw) {
			return string(v.raw), nil
		}
		return base64.StdEncoding.EncodeToString(v.raw), nil
	case KindBool:
		if v.b {
			return "ON", nil
		}
		return "OFF", nil
	default:
		return "", conversionError(v, "string", ErrInvalidConversion)
	}
}

// AsBool converts v to a bool.
//
//   - Number: true when the integer part is non-zero
//   - String: on/open/true or off/closed/false (trimmed, case-insensitive)
//   - Raw: first byte non-zero, false when empty
//   - Bool: the bool itself
func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case KindNumber:
		n := math.Trunc(v.num)
		return n != 0 && !math.IsNaN(n), nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "on", "open", "true":
			return true, nil
		case "off", "closed", "false":
			return false, nil
		}
		return false, conversionError(v, "bool", ErrInvalidConversion)
	case KindRaw:
		return len(v.raw) > 0 && v.raw[0] != 0, nil
	case KindBool:
		return v.b, nil
	default:
		return false, conversionError(v, "bool", ErrInvalidConversion)
	}
}

// AsRaw converts v to bytes. The returned slice is owned by the caller.
//
//   - Number: 8-byte big-endian float64
//   - String: UTF-8 bytes
//   - Raw: a copy of the bytes
//   - Bool: a single 0 or 1 byte
func (v Value) AsRaw() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		buf := make([]byte, float64Size)
		binary.BigEndian.PutUint64(buf, math.Float64bits(v.num))
		return buf, nil
	case KindString:
		return []byte(v.str), nil
	case KindRaw:
		return bytes.Clone(v.raw), nil
	case KindBool:
		if v.b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	default:
		return nil, conversionError(v, "raw", ErrInvalidConversion)
	}
}

// Equal reports whether v and other hold the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindRaw:
		return bytes.Equal(v.raw, other.raw)
	case KindBool:
		return v.b == other.b
	default:
		return false
	}
}

// String renders v for logs, e.g. Number(1.5) or String("on").
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("Number(%s)", strconv.FormatFloat(v.num, 'g', -1, 64))
	case KindString:
		return fmt.Sprintf("String(%q)", v.str)
	case KindRaw:
		return fmt.Sprintf("Raw(%x)", v.raw)
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.b)
	default:
		return v.kind.String()
	}
}

package value

import (
	"errors"
	"fmt"
)

// Sentinel errors for value conversions.
//
// Conversion failures are returned as *ConversionError, which wraps one of
// these and can be checked with errors.Is:
//
//	if errors.Is(err, value.ErrParseNumber) {
//	    // text was not a number
//	}
var (
	// ErrInvalidConversion indicates the source value has no representation
	// in the requested target type.
	ErrInvalidConversion = errors.New("value: invalid conversion")

	// ErrParseNumber indicates text could not be parsed as a decimal number.
	ErrParseNumber = errors.New("value: cannot parse number")
)

// ConversionError describes a failed conversion, naming the source value and
// the requested target type.
type ConversionError struct {
	Value  Value
	Target string
	Err    error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("%v: could not convert %s to %s", e.Err, e.Value, e.Target)
}

// Unwrap returns the underlying sentinel error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

func conversionError(v Value, target string, err error) error {
	return &ConversionError{Value: v, Target: target, Err: err}
}

package core

import "errors"

// Error classes shared by bindings and buses.
//
// Implementations wrap these so callers can classify failures without knowing
// the concrete driver or transport:
//
//	if errors.Is(err, core.ErrDevice) {
//	    // driver rejected the operation
//	}
var (
	// ErrDevice indicates a driver-specific failure.
	ErrDevice = errors.New("core: device error")

	// ErrBus indicates a transport failure.
	ErrBus = errors.New("core: bus error")

	// ErrConfig indicates malformed configuration.
	ErrConfig = errors.New("core: config error")
)

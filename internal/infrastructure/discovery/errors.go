package discovery

import "errors"

// Sentinel errors for broker discovery.
var (
	// ErrDisabled indicates discovery is turned off in configuration.
	ErrDisabled = errors.New("discovery: disabled in configuration")

	// ErrNotFound indicates no usable broker answered before the timeout.
	ErrNotFound = errors.New("discovery: no broker found")

	// ErrBrowseFailed indicates the mDNS browse could not be started.
	ErrBrowseFailed = errors.New("discovery: browse failed")
)

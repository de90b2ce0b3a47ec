package process

import "errors"

// Sentinel errors for process supervision.
var (
	// ErrAlreadyRunning indicates Start was called while supervision is active.
	ErrAlreadyRunning = errors.New("process: already running")

	// ErrStartFailed indicates the executable could not be launched.
	ErrStartFailed = errors.New("process: start failed")

	// ErrUnhealthy indicates the process was killed after repeated health
	// check failures.
	ErrUnhealthy = errors.New("process: health check failed")

	// ErrNoPort indicates a managed zwave-server has no controller port.
	ErrNoPort = errors.New("process: no controller port configured")
)

package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrNoBinding is returned by New when Options.Binding is nil.
	ErrNoBinding = errors.New("bridge: binding is required")

	// ErrNoBus is returned by New when Options.Bus is nil.
	ErrNoBus = errors.New("bridge: bus is required")

	// ErrAlreadyRunning is returned when Run is called a second time.
	ErrAlreadyRunning = errors.New("bridge: already running")
)

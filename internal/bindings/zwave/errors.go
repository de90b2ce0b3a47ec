package zwave

import "github.com/nerrad567/catt-bridge/internal/core"

// Domain-specific errors for the Z-Wave binding.
//
// Each wraps core.ErrDevice, so callers can classify any of them with
// errors.Is(err, core.ErrDevice).
var (
	// ErrUnimplemented indicates a native value type the coercion layer does not support.
	ErrUnimplemented = deviceError("zwave: value type not supported")

	// ErrInvalidCommand indicates a controller command other than include, exclude or idle.
	ErrInvalidCommand = deviceError("zwave: invalid controller command")

	// ErrNoController indicates the driver has not reported any controller.
	ErrNoController = deviceError("zwave: no controller available")

	// ErrDriverRemoved indicates the driver lost its controller and the binding stopped.
	ErrDriverRemoved = deviceError("zwave: driver removed")

	// ErrNotConnected indicates an operation on a driver that is not connected.
	ErrNotConnected = deviceError("zwave: driver not connected")

	// ErrUnknownValue indicates a value id the driver has never reported.
	ErrUnknownValue = deviceError("zwave: unknown value")

	// ErrCommandFailed indicates the server rejected a command.
	ErrCommandFailed = deviceError("zwave: command failed")

	// ErrTimeout indicates the server did not answer a command in time.
	ErrTimeout = deviceError("zwave: command timed out")
)

// deviceErr is a sentinel that also matches core.ErrDevice.
type deviceErr struct {
	msg string
}

func deviceError(msg string) error {
	return &deviceErr{msg: msg}
}

func (e *deviceErr) Error() string {
	return e.msg
}

func (e *deviceErr) Is(target error) bool {
	return target == core.ErrDevice
}

package zwave

// Driver is the native Z-Wave stack the binding consumes.
//
// Implementations emit every value the controller knows about as
// NotifyValueAdded before NotifyDriverReady, and close the notification
// channel when they shut down. ReadValue returns one of bool, uint8, int16,
// int32, float32, string or []byte, matching the value's ValueType.
type Driver interface {
	// Notifications returns the driver event stream.
	Notifications() <-chan DriverNotification

	// ReadValue returns the current native value for id.
	ReadValue(id ValueID) (any, error)

	// WriteValue sets the native value for id. v is one of the types ReadValue returns.
	WriteValue(id ValueID, v any) error

	// AddNode starts inclusion on the controller of homeID.
	AddNode(homeID uint32) error

	// RemoveNode starts exclusion on the controller of homeID.
	RemoveNode(homeID uint32) error

	// CancelCommand stops any running inclusion or exclusion on homeID.
	CancelCommand(homeID uint32) error

	// HomeIDs lists the controllers the driver knows, in no particular order.
	HomeIDs() []uint32

	// Close shuts the driver down and closes the notification channel.
	Close() error
}

// DriverNotificationKind is the type of a driver event.
type DriverNotificationKind uint8

// Driver event kinds.
const (
	NotifyValueAdded DriverNotificationKind = iota + 1
	NotifyValueChanged
	NotifyValueRemoved
	NotifyDriverReady
	NotifyControllerCommand
	NotifyDriverRemoved
)

// String returns the event kind name.
func (k DriverNotificationKind) String() string {
	switch k {
	case NotifyValueAdded:
		return "value_added"
	case NotifyValueChanged:
		return "value_changed"
	case NotifyValueRemoved:
		return "value_removed"
	case NotifyDriverReady:
		return "driver_ready"
	case NotifyControllerCommand:
		return "controller_command"
	case NotifyDriverRemoved:
		return "driver_removed"
	default:
		return "unknown"
	}
}

// Controller command states.
const (
	StateIdle    = "idle"
	StateInclude = "include"
	StateExclude = "exclude"
	StateFailed  = "failed"
)

// DriverNotification is one driver event.
//
// Value events set ValueID and Label. Controller events set HomeID and, for
// NotifyControllerCommand, State. NotifyDriverRemoved may carry Err.
type DriverNotification struct {
	Kind    DriverNotificationKind
	ValueID ValueID
	Label   string
	HomeID  uint32
	State   string
	Err     error
}

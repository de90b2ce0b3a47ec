package zwave

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/value"
)

// ControllerItem exposes the controller's inclusion state as a string item.
//
// Writing "include" or "exclude" starts inclusion or exclusion; writing
// "idle" cancels it. An item pinned to a home id drives that controller; an
// unpinned item drives the controller with the lowest home id. The value
// reads back the last state the driver reported or the binding set.
type ControllerItem struct {
	name   string
	driver Driver
	pinned uint32

	mu    sync.Mutex
	state string
}

// NewControllerItem returns a controller item in the idle state. homeID pins
// the item to one controller; 0 leaves it unpinned.
func NewControllerItem(name string, driver Driver, homeID uint32) *ControllerItem {
	return &ControllerItem{name: name, driver: driver, pinned: homeID, state: StateIdle}
}

// Name returns the logical item name.
func (c *ControllerItem) Name() string {
	return c.name
}

// State returns the current controller state.
func (c *ControllerItem) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setState records a driver-reported state.
func (c *ControllerItem) setState(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Value returns the state as a String.
func (c *ControllerItem) Value() (value.Value, error) {
	return value.String(c.State()), nil
}

// SetValue runs a controller command. The text is trimmed and lowercased.
func (c *ControllerItem) SetValue(v value.Value) error {
	s, err := v.AsString()
	if err != nil {
		return err
	}
	cmd := strings.ToLower(strings.TrimSpace(s))

	var run func(uint32) error
	switch cmd {
	case StateInclude:
		run = c.driver.AddNode
	case StateExclude:
		run = c.driver.RemoveNode
	case StateIdle:
		run = c.driver.CancelCommand
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCommand, cmd)
	}

	homeID, err := c.homeID()
	if err != nil {
		return err
	}

	if err := run(homeID); err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("controller %s %08x: %w", cmd, homeID, err)
	}
	c.setState(cmd)
	return nil
}

// Meta describes the controller as a zwave string item.
func (c *ControllerItem) Meta() *core.Meta {
	return &core.Meta{
		Backend:   "zwave",
		ValueType: "string",
	}
}

// homeID returns the pinned home id, or the lowest known one.
func (c *ControllerItem) homeID() (uint32, error) {
	if c.pinned != 0 {
		return c.pinned, nil
	}
	ids := c.driver.HomeIDs()
	if len(ids) == 0 {
		return 0, ErrNoController
	}
	return slices.Min(ids), nil
}

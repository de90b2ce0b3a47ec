package zwave

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
	"github.com/nerrad567/catt-bridge/internal/value"
)

const testHomeID = 0x0184d2a1

func userValue(node uint16, class CommandClass, typ ValueType, property string) ValueID {
	return ValueID{
		HomeID:       testHomeID,
		NodeID:       node,
		CommandClass: class,
		Property:     property,
		Genre:        GenreUser,
		Type:         typ,
	}
}

func newTestBinding(t *testing.T, cfg config.ZWaveConfig, drv *MockDriver, opts ...Option) *Binding {
	t.Helper()
	b, err := New(cfg, drv, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

// ============================================================================
// Construction
// ============================================================================

func TestNew_NilDriver(t *testing.T) {
	_, err := New(config.ZWaveConfig{}, nil)
	assert.ErrorIs(t, err, core.ErrConfig)
}

// ============================================================================
// Value lifecycle
// ============================================================================

func TestBinding_SwitchLevelScenario(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	cfg := config.ZWaveConfig{
		Devices: []config.DeviceConfig{{Name: "Switch", ID: 2, Label: "Level"}},
	}
	b := newTestBinding(t, cfg, drv)

	id := userValue(2, ClassSwitchMultilevel, TypeByte, "level")
	drv.Set(id, uint8(99))
	drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: "Level"})

	n := nextNotification(t, b.Notifications())
	assert.Equal(t, core.Added, n.Kind)
	assert.Equal(t, "Switch", n.Item.Name())

	item, ok := b.Item("Switch")
	require.True(t, ok)
	require.NoError(t, item.SetValue(value.String("0")))

	writes := drv.GetWrites()
	require.Len(t, writes, 1)
	assert.Equal(t, id, writes[0].id)
	assert.Equal(t, uint8(0), writes[0].v)
}

func TestBinding_ChangedAndRemoved(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	cfg := config.ZWaveConfig{Devices: []config.DeviceConfig{{Name: "Lamp", ID: 3}}}
	b := newTestBinding(t, cfg, drv)

	id := userValue(3, ClassSwitchBinary, TypeBool, "currentValue")
	drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: "Current value"})
	added := nextNotification(t, b.Notifications())

	drv.Simulate(DriverNotification{Kind: NotifyValueChanged, ValueID: id})
	changed := nextNotification(t, b.Notifications())
	assert.Equal(t, core.Changed, changed.Kind)
	assert.Same(t, added.Item, changed.Item)

	drv.Simulate(DriverNotification{Kind: NotifyValueRemoved, ValueID: id})
	removed := nextNotification(t, b.Notifications())
	assert.Equal(t, core.Removed, removed.Kind)
	assert.Same(t, added.Item, removed.Item)

	_, ok := b.Item("Lamp")
	assert.False(t, ok)
}

func TestBinding_UnknownValuesAreDropped(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	b := newTestBinding(t, config.ZWaveConfig{}, drv)

	id := userValue(9, ClassMeter, TypeDecimal, "value")
	drv.Simulate(DriverNotification{Kind: NotifyValueChanged, ValueID: id})
	drv.Simulate(DriverNotification{Kind: NotifyValueRemoved, ValueID: id})

	noNotification(t, b.Notifications())
}

func TestBinding_UnboundPolicy(t *testing.T) {
	id := userValue(4, ClassSensorMultilevel, TypeDecimal, "Air temperature")

	t.Run("ignored", func(t *testing.T) {
		drv := NewMockDriver(testHomeID)
		b := newTestBinding(t, config.ZWaveConfig{ExposeUnbound: false}, drv)

		drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: "Air temperature"})
		noNotification(t, b.Notifications())
		assert.Empty(t, b.Items())
	})

	t.Run("exposed", func(t *testing.T) {
		drv := NewMockDriver(testHomeID)
		b := newTestBinding(t, config.ZWaveConfig{ExposeUnbound: true}, drv)

		drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: "Air temperature"})
		n := nextNotification(t, b.Notifications())
		assert.Equal(t, "zwave_0184d2a1_4_air_temperature", n.Item.Name())
	})
}

func TestBinding_ShouldExpose(t *testing.T) {
	tests := []struct {
		name   string
		id     ValueID
		expose bool
	}{
		{"user byte", userValue(2, ClassSwitchMultilevel, TypeByte, "a"), true},
		{"basic byte", ValueID{NodeID: 2, CommandClass: ClassBasic, Genre: GenreBasic, Type: TypeByte}, true},
		{"config", ValueID{NodeID: 2, CommandClass: ClassConfiguration, Genre: GenreConfig, Type: TypeByte}, false},
		{"system", ValueID{NodeID: 2, CommandClass: ClassVersion, Genre: GenreSystem, Type: TypeString}, false},
		{"list", userValue(2, ClassThermostatMode, TypeList, "mode"), false},
		{"button", userValue(2, ClassCentralScene, TypeButton, "b"), false},
		{"schedule", userValue(2, ClassThermostatMode, TypeSchedule, "s"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := NewMockDriver(testHomeID)
			b := newTestBinding(t, config.ZWaveConfig{ExposeUnbound: true}, drv)

			drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: tt.id, Label: "x"})
			if tt.expose {
				n := nextNotification(t, b.Notifications())
				assert.Equal(t, core.Added, n.Kind)
			} else {
				noNotification(t, b.Notifications())
			}
		})
	}
}

// ============================================================================
// Duplicates
// ============================================================================

func TestBinding_DuplicateResolvesToExistingItem(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	logger := &testLogger{}
	cfg := config.ZWaveConfig{Devices: []config.DeviceConfig{{Name: "Switch", ID: 2}}}
	b := newTestBinding(t, cfg, drv, WithLogger(logger))

	first := userValue(2, ClassSwitchMultilevel, TypeByte, "currentValue")
	second := userValue(2, ClassSwitchMultilevel, TypeByte, "targetValue")

	drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: first, Label: "Current value"})
	a := nextNotification(t, b.Notifications())

	drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: second, Label: "Target value"})
	dup := nextNotification(t, b.Notifications())

	assert.Equal(t, core.Added, dup.Kind)
	assert.Same(t, a.Item, dup.Item, "duplicate carries the first item")
	assert.Len(t, b.Items(), 1)
	assert.NotEmpty(t, logger.getWarns())

	// The duplicate's own events are ignored.
	drv.Simulate(DriverNotification{Kind: NotifyValueChanged, ValueID: second})
	noNotification(t, b.Notifications())
}

// ============================================================================
// Controller and readiness
// ============================================================================

func TestBinding_DriverReadyCreatesController(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	b := newTestBinding(t, config.ZWaveConfig{}, drv)
	assert.False(t, b.Ready())

	drv.Simulate(DriverNotification{Kind: NotifyDriverReady})

	n := nextNotification(t, b.Notifications())
	assert.Equal(t, core.Added, n.Kind)
	assert.Equal(t, "zwave_controller", n.Item.Name())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.WaitReady(ctx))
	assert.True(t, b.Ready())

	// A second ready report must not duplicate the controller.
	drv.Simulate(DriverNotification{Kind: NotifyDriverReady})
	noNotification(t, b.Notifications())
}

func TestBinding_MultipleControllersAreSuffixed(t *testing.T) {
	drv := NewMockDriver(1, 2)
	b := newTestBinding(t, config.ZWaveConfig{ControllerName: "ctl"}, drv)

	drv.Simulate(DriverNotification{Kind: NotifyDriverReady})
	names := map[string]bool{}
	for i := 0; i < 2; i++ {
		names[nextNotification(t, b.Notifications()).Item.Name()] = true
	}
	assert.Equal(t, map[string]bool{"ctl_00000001": true, "ctl_00000002": true}, names)
}

func TestBinding_ControllerCommandUpdatesState(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	b := newTestBinding(t, config.ZWaveConfig{}, drv)

	drv.Simulate(DriverNotification{Kind: NotifyDriverReady})
	nextNotification(t, b.Notifications())

	drv.Simulate(DriverNotification{Kind: NotifyControllerCommand, HomeID: testHomeID, State: StateInclude})
	n := nextNotification(t, b.Notifications())
	assert.Equal(t, core.Changed, n.Kind)

	v, err := n.Item.Value()
	require.NoError(t, err)
	assert.True(t, value.String(StateInclude).Equal(v))
}

func TestBinding_WaitReadyHonoursContext(t *testing.T) {
	b := newTestBinding(t, config.ZWaveConfig{}, NewMockDriver(testHomeID))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.WaitReady(ctx), context.DeadlineExceeded)
}

func TestBinding_ReadyWithoutConsumer(t *testing.T) {
	const values = 100

	drv := NewMockDriver(testHomeID)
	rules := make([]config.DeviceConfig, 0, values)
	for i := 1; i <= values; i++ {
		rules = append(rules, config.DeviceConfig{Name: fmt.Sprintf("value_%d", i), ID: i})
	}
	b := newTestBinding(t, config.ZWaveConfig{Devices: rules}, drv)

	// The whole initial scan arrives before anything reads Notifications,
	// the same order cmd/catt uses.
	go func() {
		for i := 1; i <= values; i++ {
			id := userValue(uint16(i), ClassSwitchBinary, TypeBool, "currentValue")
			drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: "Current value"})
		}
		drv.Simulate(DriverNotification{Kind: NotifyDriverReady})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.WaitReady(ctx))
	assert.Len(t, b.Items(), values+1, "every value plus the controller")

	for i := 1; i <= values; i++ {
		n := nextNotification(t, b.Notifications())
		require.Equal(t, core.Added, n.Kind)
		assert.Equal(t, fmt.Sprintf("value_%d", i), n.Item.Name(), "driver order is kept")
	}
	ctrl := nextNotification(t, b.Notifications())
	assert.Equal(t, "zwave_controller", ctrl.Item.Name())
}

// ============================================================================
// Shutdown
// ============================================================================

func TestBinding_DriverRemovedIsFatal(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	b := newTestBinding(t, config.ZWaveConfig{}, drv)

	drv.Simulate(DriverNotification{Kind: NotifyDriverRemoved, Err: errMock})

	select {
	case err := <-b.Fatal():
		assert.ErrorIs(t, err, ErrDriverRemoved)
		assert.ErrorIs(t, err, errMock)
	case <-time.After(2 * time.Second):
		t.Fatal("no fatal error")
	}

	select {
	case _, ok := <-b.Notifications():
		assert.False(t, ok, "notification stream must close")
	case <-time.After(2 * time.Second):
		t.Fatal("notification stream not closed")
	}

	assert.ErrorIs(t, b.WaitReady(context.Background()), ErrDriverRemoved)
}

func TestBinding_DriverStreamCloseEndsLoop(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	b := newTestBinding(t, config.ZWaveConfig{}, drv)

	drv.Close()

	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit")
	}
}

func TestBinding_CloseUnblocksSlowConsumer(t *testing.T) {
	drv := NewMockDriver(testHomeID)
	b, err := New(config.ZWaveConfig{ExposeUnbound: true}, drv, WithBufferSize(0))
	require.NoError(t, err)

	// Nobody reads notifications, so the forwarder blocks on the first delivery.
	drv.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: userValue(2, ClassSwitchBinary, TypeBool, "a")})

	done := make(chan struct{})
	go func() {
		b.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked")
	}
}

// panicDriver panics on HomeIDs to exercise per-notification recovery.
type panicDriver struct {
	*MockDriver
}

func (p panicDriver) HomeIDs() []uint32 {
	panic("boom")
}

func TestBinding_RecoversFromHandlerPanic(t *testing.T) {
	mock := NewMockDriver(testHomeID)
	logger := &testLogger{}
	b, err := New(config.ZWaveConfig{ExposeUnbound: true}, panicDriver{mock}, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	mock.Simulate(DriverNotification{Kind: NotifyDriverReady})

	id := userValue(2, ClassSwitchBinary, TypeBool, "a")
	mock.Simulate(DriverNotification{Kind: NotifyValueAdded, ValueID: id, Label: "On"})

	n := nextNotification(t, b.Notifications())
	assert.Equal(t, core.Added, n.Kind, "loop keeps running after a panic")
	assert.Contains(t, logger.getWarns(), "recovered panic handling zwave notification")
}

package zwave

import (
	"fmt"
	"math"
	"strconv"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/value"
)

// ValueItem is a core.Item backed by one native value. It holds no state of
// its own; every read and write goes to the driver.
type ValueItem struct {
	name   string
	id     ValueID
	label  string
	driver Driver
}

// NewValueItem returns an item named name over id.
func NewValueItem(name string, id ValueID, label string, driver Driver) *ValueItem {
	return &ValueItem{name: name, id: id, label: label, driver: driver}
}

// Name returns the logical item name.
func (i *ValueItem) Name() string {
	return i.name
}

// ValueID returns the native id behind the item.
func (i *ValueItem) ValueID() ValueID {
	return i.id
}

// Value reads the native value and converts it to a value.Value.
func (i *ValueItem) Value() (value.Value, error) {
	if !i.id.Type.Supported() {
		return value.Value{}, fmt.Errorf("%w: %s", ErrUnimplemented, i.id.Type)
	}
	raw, err := i.driver.ReadValue(i.id)
	if err != nil {
		return value.Value{}, fmt.Errorf("reading %s: %w", i.id, err)
	}
	return fromNative(raw)
}

// SetValue coerces v to the native type and writes it.
//
// Numeric types saturate at their bounds; NaN writes as zero.
func (i *ValueItem) SetValue(v value.Value) error {
	native, err := toNative(i.id.Type, v)
	if err != nil {
		return err
	}
	if err := i.driver.WriteValue(i.id, native); err != nil {
		return fmt.Errorf("writing %s: %w", i.id, err)
	}
	return nil
}

// Meta describes the item. It returns nil when the value cannot be read.
func (i *ValueItem) Meta() *core.Meta {
	v, err := i.Value()
	if err != nil {
		return nil
	}
	return &core.Meta{
		Backend:   "zwave",
		ValueType: v.TypeString(),
		Ext: map[string]string{
			"label":         i.label,
			"node_id":       strconv.Itoa(int(i.id.NodeID)),
			"command_class": i.id.CommandClass.String(),
			"instance":      strconv.Itoa(int(i.id.Endpoint)),
			"genre":         i.id.Genre.String(),
		},
	}
}

// fromNative converts a driver value to a value.Value.
func fromNative(raw any) (value.Value, error) {
	switch n := raw.(type) {
	case bool:
		return value.Bool(n), nil
	case uint8:
		return value.Number(float64(n)), nil
	case int16:
		return value.Number(float64(n)), nil
	case int32:
		return value.Number(float64(n)), nil
	case float32:
		return value.Number(float64(n)), nil
	case float64:
		return value.Number(n), nil
	case string:
		return value.String(n), nil
	case []byte:
		return value.Raw(n), nil
	default:
		return value.Value{}, fmt.Errorf("%w: native %T", ErrUnimplemented, raw)
	}
}

// toNative coerces v to the Go type the driver expects for t.
func toNative(t ValueType, v value.Value) (any, error) {
	switch t {
	case TypeBool:
		return v.AsBool()
	case TypeByte:
		n, err := v.AsNumber()
		if err != nil {
			return nil, err
		}
		return uint8(clamp(n, 0, math.MaxUint8)), nil
	case TypeShort:
		n, err := v.AsNumber()
		if err != nil {
			return nil, err
		}
		return int16(clamp(n, math.MinInt16, math.MaxInt16)), nil
	case TypeInt:
		n, err := v.AsNumber()
		if err != nil {
			return nil, err
		}
		return int32(clamp(n, math.MinInt32, math.MaxInt32)), nil
	case TypeDecimal:
		n, err := v.AsNumber()
		if err != nil {
			return nil, err
		}
		if math.IsNaN(n) {
			return float32(0), nil
		}
		return float32(clamp(n, -math.MaxFloat32, math.MaxFloat32)), nil
	case TypeString:
		return v.AsString()
	case TypeRaw:
		return v.AsRaw()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnimplemented, t)
	}
}

// clamp bounds n to [lo, hi], truncating toward zero. NaN is zero.
func clamp(n, lo, hi float64) float64 {
	switch {
	case math.IsNaN(n):
		return 0
	case n < lo:
		return lo
	case n > hi:
		return hi
	default:
		return math.Trunc(n)
	}
}

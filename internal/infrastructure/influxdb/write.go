package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/catt-bridge/internal/value"
)

// Point layout for item state history.
const (
	measurementItemState = "item_state"
	tagItem              = "item"
	tagKind              = "kind"
	fieldValue           = "value"
	fieldText            = "text"
)

// RecordState writes one item state sample to InfluxDB.
//
// Numbers are stored in the "value" field and booleans as 1 or 0 in the same
// field, so both can be graphed. Strings and raw bytes go to the "text"
// field; raw bytes that are not valid text are Base64 encoded.
//
// The write is non-blocking and silently skipped when the client is closed.
//
// Parameters:
//   - name: item name, stored as the "item" tag
//   - v: the value read from the item
func (c *Client) RecordState(name string, v value.Value) {
	c.RecordStateAt(name, v, time.Now())
}

// RecordStateAt is RecordState with an explicit timestamp.
func (c *Client) RecordStateAt(name string, v value.Value, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	point := statePoint(name, v, ts)
	if point == nil {
		return
	}
	c.writer.WritePoint(point)
}

// statePoint builds the item_state point for v, or nil when v cannot be
// rendered.
func statePoint(name string, v value.Value, ts time.Time) *write.Point {
	fields := make(map[string]any, 1)

	switch v.Kind() {
	case value.KindNumber:
		n, err := v.AsNumber()
		if err != nil {
			return nil
		}
		fields[fieldValue] = n
	case value.KindBool:
		b, err := v.AsBool()
		if err != nil {
			return nil
		}
		if b {
			fields[fieldValue] = 1.0
		} else {
			fields[fieldValue] = 0.0
		}
	default:
		text, err := v.AsString()
		if err != nil {
			return nil
		}
		fields[fieldText] = text
	}

	return write.NewPoint(
		measurementItemState,
		map[string]string{
			tagItem: name,
			tagKind: v.TypeString(),
		},
		fields,
		ts,
	)
}

// Package influxdb records item state history in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health monitoring.
//
// # Data Model
//
// Every state the bridge publishes becomes one point:
//
//	item_state,item=<name>,kind=<number|string|raw|bool> value=<float>
//	item_state,item=<name>,kind=<string|raw> text="<text>"
//
// Booleans are written as 1 or 0 in the value field.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "catt",
//	    Bucket:  "items",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.RecordState("Kitchen", value.Number(21.5))
//
// # Thread Safety
//
// All Client methods are safe for concurrent use.
package influxdb

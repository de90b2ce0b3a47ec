// Package mqtt provides MQTT client connectivity for catt.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS and payload limits
//   - Topic subscriptions with wildcard validation
//   - Last Will and Testament (LWT) on the bridge status topic
//   - Connection health checks
//
// It knows nothing about items; the item topic layout lives in
// internal/bus/mqttbus, which drives this client through a small interface.
//
// # Status Topic
//
// When bus.status_topic is set, the client publishes a retained JSON document
// there:
//
//	{"status":"online","client_id":"catt-...","timestamp":"..."}
//
// A graceful Close replaces it with status "offline" and reason
// "graceful_shutdown". If the process dies the broker publishes the Last Will,
// which carries reason "unexpected_disconnect".
//
// # Reconnection
//
// paho reconnects with exponential backoff up to one minute. Subscriptions are
// tracked by the client and replayed from the OnConnect handler, because the
// session is clean.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Bus)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("catt/items/Switch/command", 0,
//	    func(topic string, payload []byte) error {
//	        log.Printf("received %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt

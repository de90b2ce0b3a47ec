package mqtt

import (
	"crypto/tls"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is used when the config carries no connect timeout.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxReconnectInterval caps paho's reconnect backoff.
	maxReconnectInterval = 60 * time.Second

	// statusQoS is used for the status topic and the Last Will.
	statusQoS = 1

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from the bus config.
//
// This configures:
//   - Broker URL (taken verbatim; tcp://, ssl://, ws:// are all accepted)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Auto-reconnect with paho's exponential backoff
//   - TLS configuration (if enabled)
//   - Clean session mode
func buildClientOptions(cfg config.BusConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	// Subscriptions are restored by the client, not the broker session.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(maxReconnectInterval)

	opts.SetConnectTimeout(connectTimeout(cfg))
	opts.SetKeepAlive(defaultKeepAlive)

	// Inbound messages for one topic are handed over in arrival order.
	opts.SetOrderMatters(true)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// configureLWT sets up Last Will and Testament for offline detection.
//
// The broker publishes the will if the bridge disconnects unexpectedly, so
// consumers of cfg.StatusTopic see "offline" even after a crash.
//
// QoS: 1, Retained: true
func configureLWT(opts *pahomqtt.ClientOptions, cfg config.BusConfig) {
	if cfg.StatusTopic == "" {
		return
	}
	opts.SetWill(cfg.StatusTopic, buildStatusPayload(statusOffline, cfg.ClientID, reasonUnexpected), statusQoS, true)
}

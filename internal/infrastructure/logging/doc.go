// Package logging provides the structured logger used across catt.
//
// Logger embeds *slog.Logger, so it satisfies the small Logger interfaces
// declared by the binding, bus, bridge, mqtt and process packages. Every
// record carries service=catt and the build version.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("bridge started", "items", 12)
//	logger.With("item", name).Warn("command dropped", "error", err)
//
// Broker passwords and InfluxDB tokens are never logged. BusConfig is logged
// through its String method, which redacts the password.
package logging

// catt - Z-Wave to MQTT bridge
//
// catt exposes every Z-Wave value the controller knows about as a named item
// on an MQTT broker. State changes are published as they happen and commands
// published on an item's topic are applied to the device.
//
// For topic layout and configuration, see configs/config.yaml.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/catt-bridge/internal/api"
	"github.com/nerrad567/catt-bridge/internal/bindings/zwave"
	"github.com/nerrad567/catt-bridge/internal/bridge"
	"github.com/nerrad567/catt-bridge/internal/bus/mqttbus"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/discovery"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/catt-bridge/internal/process"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// Default configuration file path
	defaultConfigPath = "configs/config.yaml"

	// configEnv overrides the default configuration path.
	configEnv = "CATT_CONFIG"

	// driverRetryInterval spaces connection attempts to a managed zwave-server
	// while it starts up.
	driverRetryInterval = 2 * time.Second
)

// configFlag is set by -config.
var configFlag string

func main() {
	flag.StringVar(&configFlag, "config", "", "path to a YAML or TOML configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the binding, the bus and the bridge together and blocks until
// ctx is cancelled or a fatal error ends the bridge.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting catt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Fatal conditions from background components cancel with a cause.
	ctx, fail := context.WithCancelCause(ctx)
	defer fail(nil)

	if cfg.Bus.Broker == "" {
		broker, discoverErr := discoverBroker(ctx, cfg, log)
		if discoverErr != nil {
			return fmt.Errorf("discovering broker: %w", discoverErr)
		}
		cfg.Bus.Broker = broker
	}

	// Start zwave-server (if managed)
	if cfg.Binding.Server.Managed {
		manager, startErr := startZWaveServer(ctx, cfg, log, fail)
		if startErr != nil {
			return fmt.Errorf("starting zwave-server: %w", startErr)
		}
		defer func() {
			log.Info("stopping zwave-server")
			if stopErr := manager.Stop(); stopErr != nil {
				log.Error("error stopping zwave-server", "error", stopErr)
			}
		}()
	}

	// Connect to the driver and wait for the initial scan
	driver, err := connectDriver(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connecting to zwave-js-server: %w", err)
	}
	binding, err := zwave.New(cfg.Binding, driver, zwave.WithLogger(log))
	if err != nil {
		driver.Close()
		return fmt.Errorf("creating Z-Wave binding: %w", err)
	}
	defer func() {
		log.Info("closing Z-Wave binding")
		if closeErr := binding.Close(); closeErr != nil {
			log.Error("error closing Z-Wave binding", "error", closeErr)
		}
	}()

	readyCtx, readyCancel := context.WithTimeout(ctx, cfg.GetReadyTimeout())
	err = binding.WaitReady(readyCtx)
	readyCancel()
	if err != nil {
		return fmt.Errorf("waiting for Z-Wave scan: %w", err)
	}
	log.Info("Z-Wave binding ready", "items", len(binding.Items()))

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.Bus)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected", "broker", cfg.Bus.Broker, "client_id", cfg.Bus.ClientID)

	bus, err := mqttbus.New(mqttClient, mqttbus.Options{
		Base:         cfg.Bus.ItemBase,
		QoS:          byte(cfg.Bus.QoS), //nolint:gosec // validated to 0..2
		MetaEncoding: cfg.Bus.MetaEncoding,
		Buffer:       cfg.Bus.Buffer,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("creating bus: %w", err)
	}
	defer bus.Close()

	// Connect to InfluxDB (optional)
	var recorder bridge.Recorder
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	var limiter *rate.Limiter
	if cfg.Bridge.CommandRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Bridge.CommandRate), cfg.Bridge.CommandBurst)
	}

	hub := api.NewHub(log)
	br, err := bridge.New(bridge.Options{
		Binding:        binding,
		Bus:            bus,
		Logger:         log,
		Recorder:       recorder,
		OnState:        hub.Broadcast,
		SkipUnchanged:  cfg.Bridge.SkipUnchanged,
		CommandLimiter: limiter,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	// Start HTTP API (optional)
	if cfg.API.Enabled {
		srv, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Binding: binding,
			Bridge:  br,
			Bus:     mqttClient,
			Ready:   binding,
			Hub:     hub,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- br.Run() }()

	// Closing the binding and the bus ends both pumps.
	defer func() {
		if closeErr := binding.Close(); closeErr != nil {
			log.Error("error closing Z-Wave binding", "error", closeErr)
		}
		bus.Close()
		<-br.Done()
	}()

	log.Info("initialisation complete, bridging")

	select {
	case <-ctx.Done():
		if cause := context.Cause(ctx); !errors.Is(cause, context.Canceled) {
			return cause
		}
		log.Info("shutdown signal received, cleaning up")
	case fatalErr := <-binding.Fatal():
		log.Error("Z-Wave controller lost", "error", fatalErr)
		return fmt.Errorf("z-wave binding: %w", fatalErr)
	case err := <-runErr:
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		return errors.New("bridge stopped unexpectedly")
	}

	log.Info("catt stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// The -config flag wins over CATT_CONFIG, which wins over the default.
func getConfigPath() string {
	if configFlag != "" {
		return configFlag
	}
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// discoverBroker finds the MQTT broker via mDNS.
//
// Returns:
//   - string: broker URL
//   - error: if discovery is disabled or no broker answered
func discoverBroker(ctx context.Context, cfg *config.Config, log *logging.Logger) (string, error) {
	d, err := discovery.New(cfg.Discovery)
	if err != nil {
		return "", err
	}

	log.Info("browsing for MQTT broker", "service", cfg.Discovery.Service, "domain", cfg.Discovery.Domain)
	broker, err := d.Broker(ctx, cfg.Bus.TLS)
	if err != nil {
		return "", err
	}
	log.Info("MQTT broker discovered", "broker", broker)
	return broker, nil
}

// startZWaveServer launches and supervises a local zwave-server.
// When the supervisor gives up, fail is called with the last error.
//
// Returns:
//   - *process.Manager: running manager
//   - error: If the server fails to start
func startZWaveServer(ctx context.Context, cfg *config.Config, log *logging.Logger, fail context.CancelCauseFunc) (*process.Manager, error) {
	pc, err := process.ZWaveServerConfig(cfg.Binding)
	if err != nil {
		return nil, err
	}
	pc.OnRestart = func(attempt int) {
		log.Warn("zwave-server restarting", "attempt", attempt)
	}
	pc.OnGiveUp = func(err error) {
		fail(fmt.Errorf("zwave-server gave up: %w", err))
	}

	manager := process.NewManager(pc)
	manager.SetLogger(log)

	log.Info("starting zwave-server", "binary", pc.Binary, "port", cfg.Binding.Port)
	if err := manager.Start(ctx); err != nil {
		return nil, err
	}
	return manager, nil
}

// connectDriver dials zwave-js-server. A managed server may still be
// starting, so connection attempts are retried until the ready timeout.
func connectDriver(ctx context.Context, cfg *config.Config, log *logging.Logger) (*zwave.JSDriver, error) {
	url := cfg.Binding.Server.URL
	if !cfg.Binding.Server.Managed {
		return zwave.Connect(ctx, url, zwave.WithDriverLogger(log))
	}

	deadline := time.Now().Add(cfg.GetReadyTimeout())
	for {
		driver, err := zwave.Connect(ctx, url, zwave.WithDriverLogger(log))
		if err == nil {
			return driver, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		log.Debug("zwave-js-server not reachable yet", "url", url, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(driverRetryInterval):
		}
	}
}

// healthCheck verifies the infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ErrUnsupportedFormat indicates a config file extension that is neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Config is the root configuration structure for catt.
// It is loaded from YAML or TOML and can be overridden by environment variables.
type Config struct {
	Bus       BusConfig       `yaml:"bus" toml:"bus"`
	Binding   ZWaveConfig     `yaml:"binding" toml:"binding"`
	Bridge    BridgeConfig    `yaml:"bridge" toml:"bridge"`
	API       APIConfig       `yaml:"api" toml:"api"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb" toml:"influxdb"`
	Discovery DiscoveryConfig `yaml:"discovery" toml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// BusConfig contains MQTT bus settings.
type BusConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883" or "ssl://host:8883".
	// May be empty when discovery is enabled.
	Broker string `yaml:"broker" toml:"broker"`

	// ItemBase is the topic prefix for items. Default: "catt/items"
	ItemBase string `yaml:"item_base" toml:"item_base"`

	ClientID string `yaml:"client_id" toml:"client_id"`
	QoS      int    `yaml:"qos" toml:"qos"`
	TLS      bool   `yaml:"tls" toml:"tls"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`

	// MetaEncoding selects the meta document format: "json" or "cbor".
	MetaEncoding string `yaml:"meta_encoding" toml:"meta_encoding"`

	// StatusTopic carries the bridge online/offline status (retained, LWT).
	StatusTopic string `yaml:"status_topic" toml:"status_topic"`

	// ConnectTimeout is the initial connection timeout in seconds.
	ConnectTimeout int `yaml:"connect_timeout" toml:"connect_timeout"`

	// Buffer is the capacity of the inbound message channel.
	Buffer int `yaml:"buffer" toml:"buffer"`
}

// String renders the bus config with the password redacted.
func (b BusConfig) String() string {
	pw := ""
	if b.Password != "" {
		pw = "[redacted]"
	}
	return fmt.Sprintf("BusConfig{Broker:%s ItemBase:%s ClientID:%s QoS:%d TLS:%t Username:%s Password:%s}",
		b.Broker, b.ItemBase, b.ClientID, b.QoS, b.TLS, b.Username, pw)
}

// ZWaveConfig contains Z-Wave binding settings.
type ZWaveConfig struct {
	// Port is the serial device of the Z-Wave controller, e.g. "/dev/ttyACM0".
	Port string `yaml:"port" toml:"port"`

	// SysConfigPath is the device database directory handed to the driver.
	SysConfigPath string `yaml:"sys_config_path" toml:"sys_config_path"`

	// UserConfigPath is the driver's user configuration file.
	UserConfigPath string `yaml:"user_config_path" toml:"user_config_path"`

	// ExposeUnbound gives values matching no device rule a generated name.
	ExposeUnbound bool `yaml:"expose_unbound" toml:"expose_unbound"`

	// ControllerName is the item name of the controller. Default: "zwave_controller"
	ControllerName string `yaml:"controller_name" toml:"controller_name"`

	// ReadyTimeout bounds the wait for the driver's initial scan, in seconds.
	ReadyTimeout int `yaml:"ready_timeout" toml:"ready_timeout"`

	Server  ZWaveServerConfig `yaml:"server" toml:"server"`
	Devices []DeviceConfig    `yaml:"device" toml:"device"`
}

// ZWaveServerConfig describes the zwave-js-server the binding connects to.
type ZWaveServerConfig struct {
	// URL is the websocket endpoint. Default: "ws://localhost:3000"
	URL string `yaml:"url" toml:"url"`

	// Managed indicates whether catt should run zwave-server itself.
	// If false, the server is expected to be running externally.
	Managed bool `yaml:"managed" toml:"managed"`

	// Binary is the path to the zwave-server executable. Default: "zwave-server"
	Binary string `yaml:"binary" toml:"binary"`

	// ListenPort is the websocket port given to a managed server. Default: 3000
	ListenPort int `yaml:"listen_port" toml:"listen_port"`

	RestartOnFailure    bool `yaml:"restart_on_failure" toml:"restart_on_failure"`
	RestartDelaySeconds int  `yaml:"restart_delay_seconds" toml:"restart_delay_seconds"`

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int `yaml:"max_restart_attempts" toml:"max_restart_attempts"`
}

// DeviceConfig is a rule mapping a native Z-Wave value to a logical item name.
// Optional fields are matched case-insensitively when set.
type DeviceConfig struct {
	Name         string `yaml:"name" toml:"name"`
	ID           int    `yaml:"id" toml:"id"`
	CommandClass string `yaml:"command_class,omitempty" toml:"command_class,omitempty"`
	ValueType    string `yaml:"value_type,omitempty" toml:"value_type,omitempty"`
	Label        string `yaml:"label,omitempty" toml:"label,omitempty"`
}

// BridgeConfig contains pump behaviour settings.
type BridgeConfig struct {
	// SkipUnchanged suppresses state updates equal to the last published value.
	SkipUnchanged bool `yaml:"skip_unchanged" toml:"skip_unchanged"`

	// CommandRate is the sustained command rate per second. 0 disables limiting.
	CommandRate float64 `yaml:"command_rate" toml:"command_rate"`

	// CommandBurst is the limiter bucket size.
	CommandBurst int `yaml:"command_burst" toml:"command_burst"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled" toml:"enabled"`
	Host     string           `yaml:"host" toml:"host"`
	Port     int              `yaml:"port" toml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts" toml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read" toml:"read"`
	Write int `yaml:"write" toml:"write"`
	Idle  int `yaml:"idle" toml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	URL           string `yaml:"url" toml:"url"`
	Token         string `yaml:"token" toml:"token"`
	Org           string `yaml:"org" toml:"org"`
	Bucket        string `yaml:"bucket" toml:"bucket"`
	BatchSize     int    `yaml:"batch_size" toml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval" toml:"flush_interval"`
}

// DiscoveryConfig contains mDNS broker discovery settings.
type DiscoveryConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Service string `yaml:"service" toml:"service"`
	Domain  string `yaml:"domain" toml:"domain"`

	// Timeout bounds the browse, in seconds.
	Timeout int `yaml:"timeout" toml:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
}

// Load reads configuration from a YAML or TOML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. File values (override defaults); the format follows the extension
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CATT_SECTION_KEY
// For example: CATT_BUS_BROKER, CATT_LOGGING_LEVEL
//
// Parameters:
//   - path: Path to a .yaml, .yml or .toml configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	applyEnvOverrides(cfg)
	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bus: BusConfig{
			ItemBase:       "catt/items",
			QoS:            0,
			MetaEncoding:   "json",
			StatusTopic:    "catt/bridge/status",
			ConnectTimeout: 10,
			Buffer:         256,
		},
		Binding: ZWaveConfig{
			ControllerName: "zwave_controller",
			ReadyTimeout:   120,
			Server: ZWaveServerConfig{
				URL:                 "ws://localhost:3000",
				Binary:              "zwave-server",
				ListenPort:          3000,
				RestartOnFailure:    true,
				RestartDelaySeconds: 5,
				MaxRestartAttempts:  10,
			},
		},
		Bridge: BridgeConfig{
			CommandBurst: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Discovery: DiscoveryConfig{
			Service: "_mqtt._tcp",
			Domain:  "local.",
			Timeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// fillDerived sets values that depend on other fields.
func (c *Config) fillDerived() {
	if c.Bus.ClientID == "" {
		c.Bus.ClientID = "catt-" + uuid.NewString()
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: CATT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Bus
	if v := os.Getenv("CATT_BUS_BROKER"); v != "" {
		cfg.Bus.Broker = v
	}
	if v := os.Getenv("CATT_BUS_USERNAME"); v != "" {
		cfg.Bus.Username = v
	}
	if v := os.Getenv("CATT_BUS_PASSWORD"); v != "" {
		cfg.Bus.Password = v
	}
	if v := os.Getenv("CATT_BUS_ITEM_BASE"); v != "" {
		cfg.Bus.ItemBase = v
	}

	// Binding
	if v := os.Getenv("CATT_BINDING_PORT"); v != "" {
		cfg.Binding.Port = v
	}
	if v := os.Getenv("CATT_BINDING_SERVER_URL"); v != "" {
		cfg.Binding.Server.URL = v
	}

	// API
	if v := os.Getenv("CATT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("CATT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("CATT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// validValueTypes are the collapsed value types a device rule may name.
var validValueTypes = map[string]bool{
	"int":    true,
	"float":  true,
	"bool":   true,
	"string": true,
	"raw":    true,
}

// maxNodeID is the highest Z-Wave Long Range node id.
const maxNodeID = 4000

// validItemName reports whether name can be used as a single MQTT topic level.
func validItemName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/+#\x00")
}

// Validate checks the configuration for errors.
//
// Every problem is collected so a single run reports them all.
//
// Returns:
//   - error: wrapping ErrInvalidConfig, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Bus validation
	if c.Bus.Broker == "" && !c.Discovery.Enabled {
		errs = append(errs, "bus.broker is required unless discovery is enabled")
	}
	if c.Bus.QoS < 0 || c.Bus.QoS > 2 {
		errs = append(errs, "bus.qos must be 0, 1, or 2")
	}
	if c.Bus.ItemBase == "" {
		errs = append(errs, "bus.item_base is required")
	} else if strings.ContainsAny(c.Bus.ItemBase, "+#") {
		errs = append(errs, "bus.item_base must not contain MQTT wildcards")
	}
	switch strings.ToLower(c.Bus.MetaEncoding) {
	case "json", "cbor":
	default:
		errs = append(errs, "bus.meta_encoding must be json or cbor")
	}

	// Binding validation
	if !validItemName(c.Binding.ControllerName) {
		errs = append(errs, "binding.controller_name is required and must not contain /, +, # or NUL")
	}
	if !c.Binding.Server.Managed && c.Binding.Server.URL == "" {
		errs = append(errs, "binding.server.url is required for an unmanaged server")
	}
	if c.Binding.Server.Managed && c.Binding.Port == "" {
		errs = append(errs, "binding.port is required for a managed server")
	}
	for i, d := range c.Binding.Devices {
		if d.Name == "" {
			errs = append(errs, fmt.Sprintf("binding.device[%d].name is required", i))
		} else if !validItemName(d.Name) {
			errs = append(errs, fmt.Sprintf("binding.device[%d].name %q must not contain /, +, # or NUL", i, d.Name))
		}
		if d.ID < 1 || d.ID > maxNodeID {
			errs = append(errs, fmt.Sprintf("binding.device[%d].id must be between 1 and %d", i, maxNodeID))
		}
		if d.ValueType != "" && !validValueTypes[strings.ToLower(d.ValueType)] {
			errs = append(errs, fmt.Sprintf("binding.device[%d].value_type must be int, float, bool, string or raw", i))
		}
	}

	// Bridge validation
	if c.Bridge.CommandRate < 0 {
		errs = append(errs, "bridge.command_rate must not be negative")
	}
	if c.Bridge.CommandRate > 0 && c.Bridge.CommandBurst < 1 {
		errs = append(errs, "bridge.command_burst must be at least 1 when command_rate is set")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// GetReadyTimeout returns the binding ready timeout as a Duration.
func (c *Config) GetReadyTimeout() time.Duration {
	return time.Duration(c.Binding.ReadyTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

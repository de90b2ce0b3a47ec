package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	content := `
bus:
  broker: "tcp://localhost:1883"
  client_id: "test-client"
  qos: 1
binding:
  port: "/dev/ttyACM0"
  expose_unbound: true
  device:
    - name: "Switch"
      id: 2
      label: "Level"
    - name: "Dimmer"
      id: 3
      command_class: "switch_multilevel"
      value_type: "int"
`
	cfg, err := Load(writeConfig(t, "config.yaml", content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bus.Broker != "tcp://localhost:1883" {
		t.Errorf("Bus.Broker = %q, want %q", cfg.Bus.Broker, "tcp://localhost:1883")
	}
	if cfg.Bus.ItemBase != "catt/items" {
		t.Errorf("Bus.ItemBase = %q, want default %q", cfg.Bus.ItemBase, "catt/items")
	}
	if !cfg.Binding.ExposeUnbound {
		t.Error("Binding.ExposeUnbound = false, want true")
	}
	if len(cfg.Binding.Devices) != 2 {
		t.Fatalf("len(Binding.Devices) = %d, want 2", len(cfg.Binding.Devices))
	}
	if cfg.Binding.Devices[0].Name != "Switch" || cfg.Binding.Devices[0].Label != "Level" {
		t.Errorf("Binding.Devices[0] = %+v", cfg.Binding.Devices[0])
	}
	if cfg.Binding.Devices[1].CommandClass != "switch_multilevel" {
		t.Errorf("Binding.Devices[1].CommandClass = %q", cfg.Binding.Devices[1].CommandClass)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	content := `
[bus]
broker = "tcp://broker:1883"
item_base = "home/items"

[binding]
port = "/dev/ttyUSB0"
sys_config_path = "/etc/openzwave"

[[binding.device]]
name = "Switch"
id = 2
label = "Level"
`
	cfg, err := Load(writeConfig(t, "config.toml", content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bus.ItemBase != "home/items" {
		t.Errorf("Bus.ItemBase = %q, want %q", cfg.Bus.ItemBase, "home/items")
	}
	if cfg.Binding.SysConfigPath != "/etc/openzwave" {
		t.Errorf("Binding.SysConfigPath = %q", cfg.Binding.SysConfigPath)
	}
	if len(cfg.Binding.Devices) != 1 || cfg.Binding.Devices[0].ID != 2 {
		t.Errorf("Binding.Devices = %+v", cfg.Binding.Devices)
	}
}

func TestLoad_GeneratesClientID(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", "bus:\n  broker: tcp://localhost:1883\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !strings.HasPrefix(cfg.Bus.ClientID, "catt-") {
		t.Errorf("Bus.ClientID = %q, want catt- prefix", cfg.Bus.ClientID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeConfig(t, "config.ini", "broker=x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "config.yaml", "bus: [unclosed"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
bus:
  broker: "tcp://localhost:1883"
binding:
  device:
    - name: ""
      id: 0
`
	_, err := Load(writeConfig(t, "config.yaml", content))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "name is required") || !strings.Contains(err.Error(), "between 1 and 4000") {
		t.Errorf("Load() error = %v, want both device problems reported", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Bus.Broker = "tcp://localhost:1883"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults with broker",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing broker",
			mutate:  func(c *Config) { c.Bus.Broker = "" },
			wantErr: true,
		},
		{
			name: "missing broker with discovery",
			mutate: func(c *Config) {
				c.Bus.Broker = ""
				c.Discovery.Enabled = true
			},
			wantErr: false,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.Bus.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "wildcard in item base",
			mutate:  func(c *Config) { c.Bus.ItemBase = "catt/+/items" },
			wantErr: true,
		},
		{
			name:    "meta encoding is case-insensitive",
			mutate:  func(c *Config) { c.Bus.MetaEncoding = "JSON" },
			wantErr: false,
		},
		{
			name: "long range device id",
			mutate: func(c *Config) {
				c.Binding.Devices = []DeviceConfig{{Name: "x", ID: 257}}
			},
			wantErr: false,
		},
		{
			name: "device name with topic separator",
			mutate: func(c *Config) {
				c.Binding.Devices = []DeviceConfig{{Name: "Living/Lamp", ID: 2}}
			},
			wantErr: true,
		},
		{
			name: "device name with wildcard",
			mutate: func(c *Config) {
				c.Binding.Devices = []DeviceConfig{{Name: "Lamp+", ID: 2}}
			},
			wantErr: true,
		},
		{
			name: "device name with NUL",
			mutate: func(c *Config) {
				c.Binding.Devices = []DeviceConfig{{Name: "Lamp\x00", ID: 2}}
			},
			wantErr: true,
		},
		{
			name:    "controller name with wildcard",
			mutate:  func(c *Config) { c.Binding.ControllerName = "zwave/#" },
			wantErr: true,
		},
		{
			name:    "unknown meta encoding",
			mutate:  func(c *Config) { c.Bus.MetaEncoding = "xml" },
			wantErr: true,
		},
		{
			name: "device id out of range",
			mutate: func(c *Config) {
				c.Binding.Devices = []DeviceConfig{{Name: "x", ID: 4001}}
			},
			wantErr: true,
		},
		{
			name: "device unknown value type",
			mutate: func(c *Config) {
				c.Binding.Devices = []DeviceConfig{{Name: "x", ID: 2, ValueType: "byte"}}
			},
			wantErr: true,
		},
		{
			name: "device value type is case-insensitive",
			mutate: func(c *Config) {
				c.Binding.Devices = []DeviceConfig{{Name: "x", ID: 2, ValueType: "Bool"}}
			},
			wantErr: false,
		},
		{
			name: "managed server without port",
			mutate: func(c *Config) {
				c.Binding.Server.Managed = true
			},
			wantErr: true,
		},
		{
			name: "api port ignored when disabled",
			mutate: func(c *Config) {
				c.API.Port = 0
			},
			wantErr: false,
		},
		{
			name: "api port checked when enabled",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "command rate without burst",
			mutate: func(c *Config) {
				c.Bridge.CommandRate = 5
				c.Bridge.CommandBurst = 0
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Binding: ZWaveConfig{ReadyTimeout: 90},
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadyTimeout().Seconds(); got != 90 {
		t.Errorf("GetReadyTimeout() = %v, want 90", got)
	}
	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("CATT_BUS_BROKER", "tcp://mqtt.example.com:1883")
	t.Setenv("CATT_BUS_USERNAME", "testuser")
	t.Setenv("CATT_BUS_PASSWORD", "testpass")
	t.Setenv("CATT_BINDING_PORT", "/dev/ttyACM1")
	t.Setenv("CATT_API_PORT", "9090")
	t.Setenv("CATT_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("CATT_LOGGING_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Bus.Broker != "tcp://mqtt.example.com:1883" {
		t.Errorf("Bus.Broker = %q", cfg.Bus.Broker)
	}
	if cfg.Bus.Username != "testuser" {
		t.Errorf("Bus.Username = %q, want %q", cfg.Bus.Username, "testuser")
	}
	if cfg.Bus.Password != "testpass" {
		t.Errorf("Bus.Password = %q, want %q", cfg.Bus.Password, "testpass")
	}
	if cfg.Binding.Port != "/dev/ttyACM1" {
		t.Errorf("Binding.Port = %q", cfg.Binding.Port)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestBusConfig_StringRedactsPassword(t *testing.T) {
	b := BusConfig{Broker: "tcp://x:1883", Username: "u", Password: "hunter2"}
	s := b.String()
	if strings.Contains(s, "hunter2") {
		t.Errorf("String() = %q, leaks password", s)
	}
	if !strings.Contains(s, "[redacted]") {
		t.Errorf("String() = %q, want [redacted]", s)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Bus.ItemBase != "catt/items" {
		t.Errorf("defaultConfig Bus.ItemBase = %q, want catt/items", cfg.Bus.ItemBase)
	}
	if cfg.Binding.ControllerName != "zwave_controller" {
		t.Errorf("defaultConfig Binding.ControllerName = %q", cfg.Binding.ControllerName)
	}
	if cfg.Binding.Server.URL != "ws://localhost:3000" {
		t.Errorf("defaultConfig Binding.Server.URL = %q", cfg.Binding.Server.URL)
	}
	if cfg.Discovery.Service != "_mqtt._tcp" {
		t.Errorf("defaultConfig Discovery.Service = %q", cfg.Discovery.Service)
	}
}

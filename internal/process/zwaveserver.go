package process

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
)

// zwave-server defaults.
const (
	defaultZWaveBinary     = "zwave-server"
	defaultZWaveListenPort = 3000

	// externalConfigEnv points the driver at its device database.
	externalConfigEnv = "ZWAVEJS_EXTERNAL_CONFIG"
)

// ZWaveServerConfig builds the supervision Config for a managed zwave-server:
//
//	zwave-server <port> --port <listen_port> [--config <user_config_path>]
//
// The binding's sys_config_path is passed as ZWAVEJS_EXTERNAL_CONFIG. The
// health check dials the websocket port on localhost.
//
// Returns ErrNoPort when the binding has no controller port.
func ZWaveServerConfig(cfg config.ZWaveConfig) (Config, error) {
	if cfg.Port == "" {
		return Config{}, ErrNoPort
	}

	srv := cfg.Server
	binary := srv.Binary
	if binary == "" {
		binary = defaultZWaveBinary
	}
	listen := srv.ListenPort
	if listen <= 0 {
		listen = defaultZWaveListenPort
	}

	args := []string{cfg.Port, "--port", strconv.Itoa(listen)}
	if cfg.UserConfigPath != "" {
		args = append(args, "--config", cfg.UserConfigPath)
	}

	pc := DefaultConfig("zwave-server", binary, args)
	pc.RestartOnFailure = srv.RestartOnFailure
	if srv.RestartDelaySeconds > 0 {
		pc.RestartDelay = time.Duration(srv.RestartDelaySeconds) * time.Second
	}
	pc.MaxRestartAttempts = srv.MaxRestartAttempts
	if cfg.SysConfigPath != "" {
		pc.Env = []string{externalConfigEnv + "=" + cfg.SysConfigPath}
	}
	pc.HealthCheckFunc = portCheck(net.JoinHostPort("127.0.0.1", strconv.Itoa(listen)))

	return pc, nil
}

// portCheck returns a health check that succeeds when addr accepts TCP.
func portCheck(addr string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("dial %s: %w", addr, err)
		}
		return conn.Close()
	}
}

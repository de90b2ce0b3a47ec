// Package process supervises long-running child processes.
//
// The bridge uses it to run zwave-server itself when
// binding.server.managed is set, so a single catt process owns both the
// Z-Wave controller and the MQTT side.
//
// Features:
//   - Start/stop with SIGTERM to the process group, then SIGKILL
//   - Restart on failure with exponential backoff and an attempt limit
//   - Restart count reset after a stable run
//   - Periodic health checks; a hung process is killed and restarted
//   - Line-based capture of stdout/stderr at debug level
//
// Example usage:
//
//	pc, err := process.ZWaveServerConfig(cfg.Binding)
//	if err != nil {
//	    return err
//	}
//	mgr := process.NewManager(pc)
//	mgr.SetLogger(log)
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
package process

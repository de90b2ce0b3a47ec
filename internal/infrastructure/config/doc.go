// Package config handles loading and validating catt configuration.
//
// This package manages:
//   - Loading configuration from YAML or TOML files (chosen by extension)
//   - Overriding with CATT_* environment variables
//   - Validation of required fields and device rules
//   - Default value handling
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - BusConfig.String redacts the password for logging
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Bus.ItemBase)
package config

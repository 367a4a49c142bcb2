// Package config handles loading and validating iotmock configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (IOTMOCK_ prefix)
//   - Validation of required fields
//   - Default value handling
//
// The mock runs happily with no config file at all; Default() covers the
// common case of an in-memory database on port 8080.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config

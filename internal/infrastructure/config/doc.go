// Package config handles loading and validating FieldMesh Core configuration.
//
// This package manages:
//   - Loading an optional .env file into the process environment
//   - Loading configuration from YAML files
//   - Overriding with FIELDMESH_* environment variables
//   - Validation of required fields
//
// Sensitive values (MQTT password, InfluxDB token) should be supplied via
// the environment rather than the YAML file.
//
// Usage:
//
//	if err := config.LoadEnvFile(".env"); err != nil {
//	    return err
//	}
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
package config

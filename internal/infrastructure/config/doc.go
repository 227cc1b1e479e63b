// Package config loads and validates Sensor Manager configuration.
//
// Configuration is layered:
//  1. Hardcoded defaults suitable for local development
//  2. A YAML file (configs/config.yaml by default)
//  3. SENSORMANAGER_* environment variable overrides
//
// The environment layer exists because the service is normally deployed via
// docker-compose or Kubernetes next to its PostgreSQL and Kafka dependencies,
// where connection strings are injected rather than baked into files.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Deployments without a config file can use config.FromEnv() instead.
package config

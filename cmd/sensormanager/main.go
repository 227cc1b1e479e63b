// Sensor Manager - sensor configuration registry
//
// This is the main entry point for the Sensor Manager service. It stores
// sensor definitions in PostgreSQL, serves CRUD over HTTP, and publishes
// one Kafka change event per committed mutation so downstream consumers
// (simulators, dashboards, alerting) can track configuration in order.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/sensor-manager/migrations"

	"github.com/nerrad567/sensor-manager/internal/api"
	"github.com/nerrad567/sensor-manager/internal/infrastructure/config"
	"github.com/nerrad567/sensor-manager/internal/infrastructure/database"
	"github.com/nerrad567/sensor-manager/internal/infrastructure/kafka"
	"github.com/nerrad567/sensor-manager/internal/infrastructure/logging"
	"github.com/nerrad567/sensor-manager/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// dependencyCheckTimeout bounds the startup broker reachability probe.
const dependencyCheckTimeout = 5 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Sensor Manager",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(log)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the definition store. The connection is lazy: readiness below
	// is what actually waits for the database.
	db, err := database.Open(database.Config{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetLogger(log)
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	// Wait for the store to accept connections and carry the schema.
	if err := db.EnsureReady(ctx, database.ReadinessConfig{
		MaxAttempts: cfg.Database.Readiness.MaxAttempts,
		Backoff:     cfg.GetReadinessBackoff(),
		FailFast:    cfg.Database.Readiness.FailFast,
	}); err != nil {
		return fmt.Errorf("waiting for database: %w", err)
	}
	log.Info("database ready")

	repo := sensor.NewSQLRepository(db.DB)

	if cfg.Database.SeedDemoData {
		if seedErr := sensor.SeedDemoData(ctx, repo, log); seedErr != nil {
			log.Warn("seeding demo sensors failed", "error", seedErr)
		}
	}

	// Kafka producer for change events. Construction never dials, so a
	// down broker does not block startup; the probe below only warns.
	kafkaClient, err := kafka.Connect(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("creating kafka client: %w", err)
	}
	kafkaClient.SetLogger(log)
	defer func() {
		log.Info("closing kafka client")
		if closeErr := kafkaClient.Close(); closeErr != nil {
			log.Error("error closing kafka client", "error", closeErr)
		}
	}()

	probeCtx, probeCancel := context.WithTimeout(ctx, dependencyCheckTimeout)
	if err := kafkaClient.HealthCheck(probeCtx); err != nil {
		log.Warn("kafka brokers unreachable at startup, events will fail until they return",
			"bootstrap_servers", cfg.Kafka.BootstrapServers,
			"error", err,
		)
	} else {
		log.Info("kafka connected", "bootstrap_servers", cfg.Kafka.BootstrapServers)
	}
	probeCancel()

	publisher := sensor.NewBrokerPublisher(kafkaClient, cfg.Kafka.ConfigTopic)

	registry := sensor.NewRegistry(repo, publisher)
	registry.SetLogger(log)

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		DB:       db,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (drains in-flight requests)
	// 2. Kafka client (flushes buffered events)
	// 3. Database

	log.Info("Sensor Manager stopped")
	return nil
}

// loadConfig reads the YAML config file when one exists, otherwise falls
// back to defaults plus environment overrides. Containerised deployments
// often configure the service entirely through the environment.
func loadConfig(log *logging.Logger) (*config.Config, error) {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		log.Info("configuration loaded", "path", configPath)
		return cfg, nil
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	log.Info("no config file found, using defaults and environment", "checked_path", configPath)
	return cfg, nil
}

// getConfigPath returns the configuration file path.
// Uses SENSORMANAGER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SENSORMANAGER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

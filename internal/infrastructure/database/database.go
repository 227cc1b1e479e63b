package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// Database configuration constants.
const (
	// defaultMaxOpenConns limits the pool when config doesn't specify one.
	defaultMaxOpenConns = 10

	// defaultMaxIdleConns is the idle pool size when config doesn't specify one.
	defaultMaxIdleConns = 5

	// healthCheckTimeout bounds the readiness ping used by HealthCheck callers
	// that pass a background context.
	healthCheckTimeout = 5 * time.Second

	// connMaxIdleTime is how long idle connections are kept open.
	connMaxIdleTime = 30 * time.Minute
)

// DB wraps a sql.DB connection with Sensor Manager-specific functionality.
// It provides migration support, a startup readiness prober, health checks,
// and proper lifecycle management.
type DB struct {
	*sql.DB
	logger Logger
}

// Logger is the logging interface used by the database package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Config contains database configuration options.
// These map to the database section of config.yaml.
type Config struct {
	// URL is the PostgreSQL connection string.
	URL string

	// MaxOpenConns limits the connection pool size.
	MaxOpenConns int

	// MaxIdleConns is the number of idle connections kept open.
	MaxIdleConns int
}

// Open creates a database handle with the specified configuration.
//
// The connection is NOT verified here: the store is frequently started
// concurrently with this service and may not accept connections yet.
// Call EnsureReady to wait for the store and apply migrations, or
// HealthCheck for a one-shot probe.
//
// Parameters:
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Database wrapper with a lazily-connecting pool
//   - error: If the connection string cannot be parsed
func Open(cfg Config) (*DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return &DB{
		DB:     sqlDB,
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the logger used for readiness and migration progress.
func (db *DB) SetLogger(logger Logger) {
	db.logger = logger
}

// Close closes the database connection gracefully.
// It should be called when the application shuts down.
//
// Returns:
//   - error: If closing fails
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// HealthCheck verifies the database is accessible and functioning.
// It performs a simple query to ensure the connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var result int
	err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// ExecContext executes a query that doesn't return rows (INSERT, UPDATE, DELETE).
// This is a convenience wrapper that provides consistent error handling.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return result, nil
}

// BeginTx starts a new transaction with the given options.
// Always use transactions for operations that modify multiple rows/tables.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - opts: Transaction options (nil for defaults)
//
// Returns:
//   - *sql.Tx: Transaction to execute queries on
//   - error: If starting transaction fails
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}

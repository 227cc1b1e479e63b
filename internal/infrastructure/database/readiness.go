package database

import (
	"context"
	"fmt"
	"time"
)

// ReadinessConfig controls the startup schema-readiness loop.
type ReadinessConfig struct {
	// MaxAttempts is the number of times to try before giving up.
	MaxAttempts int

	// Backoff is the fixed delay between attempts. Zero retries
	// immediately; negative falls back to DefaultReadinessBackoff.
	Backoff time.Duration

	// FailFast controls what happens when all attempts are exhausted.
	// When true, EnsureReady returns the last error and the caller
	// should abort startup. When false, the failure is logged and the
	// process continues; requests will surface store errors until the
	// database comes up.
	FailFast bool
}

// Default readiness settings, matching the documented startup contract.
const (
	DefaultReadinessAttempts = 30
	DefaultReadinessBackoff  = 1 * time.Second
)

// EnsureReady blocks until the database is reachable and the schema is
// migrated, or until cfg.MaxAttempts attempts have been made.
//
// Each attempt pings the database and then runs Migrate. Migrations are
// idempotent so re-running after a partial failure is safe. Between
// failed attempts the loop sleeps for cfg.Backoff, honouring context
// cancellation.
//
// Returns nil on success. On exhaustion the behaviour depends on
// cfg.FailFast: the last error when true, nil (with a warning logged)
// when false.
func (db *DB) EnsureReady(ctx context.Context, cfg ReadinessConfig) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultReadinessAttempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = DefaultReadinessBackoff
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = db.tryReady(ctx)
		if lastErr == nil {
			if attempt > 1 {
				db.logger.Info("database ready", "attempts", attempt)
			}
			return nil
		}

		db.logger.Warn("database not ready",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", lastErr,
		)

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.Backoff == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("waiting for database: %w", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for database: %w", ctx.Err())
		case <-time.After(cfg.Backoff):
		}
	}

	if cfg.FailFast {
		return fmt.Errorf("database not ready after %d attempts: %w", cfg.MaxAttempts, lastErr)
	}

	db.logger.Warn("continuing without database readiness",
		"attempts", cfg.MaxAttempts,
		"error", lastErr,
	)
	return nil
}

// tryReady performs a single readiness attempt: ping then migrate.
func (db *DB) tryReady(ctx context.Context) error {
	if err := db.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

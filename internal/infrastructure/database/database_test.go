package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed testdata/migrations/*.sql
var testMigrationsFS embed.FS

// setupTestDB creates an in-memory SQLite database wrapped in DB and
// points the migration loader at the embedded test migrations.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	db := &DB{DB: sqlDB, logger: noopLogger{}}
	t.Cleanup(func() { db.Close() })

	useTestMigrations(t)
	return db
}

func useTestMigrations(t *testing.T) {
	t.Helper()

	prevFS := MigrationsFS
	prevDir := MigrationsDir
	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata/migrations"
	t.Cleanup(func() {
		MigrationsFS = prevFS
		MigrationsDir = prevDir
	})
}

func TestMigrate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Both migrations should now be applied and the table usable.
	if _, err := db.ExecContext(ctx,
		"INSERT INTO widgets (id, name, colour) VALUES ($1, $2, $3)",
		"w1", "first", "red",
	); err != nil {
		t.Fatalf("inserting into migrated table: %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied migrations = %d, want 2", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("pending migrations = %d, want 0", len(pending))
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	applied, _, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied migrations after re-run = %d, want 2", len(applied))
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Rolls back the colour migration, leaving the create.
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("applied migrations = %d, want 1", len(applied))
	}
	if len(pending) != 1 {
		t.Errorf("pending migrations = %d, want 1", len(pending))
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{
			name:        "up migration",
			filename:    "20260301_120000_create_sensors.up.sql",
			wantVersion: "20260301_120000",
			wantUp:      true,
			wantOK:      true,
		},
		{
			name:        "down migration",
			filename:    "20260301_120000_create_sensors.down.sql",
			wantVersion: "20260301_120000",
			wantUp:      false,
			wantOK:      true,
		},
		{
			name:     "not sql",
			filename: "README.md",
			wantOK:   false,
		},
		{
			name:     "no direction suffix",
			filename: "20260301_120000_create_sensors.sql",
			wantOK:   false,
		},
		{
			name:     "missing version parts",
			filename: "bare.up.sql",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestEnsureReady(t *testing.T) {
	t.Run("succeeds when store is up", func(t *testing.T) {
		db := setupTestDB(t)

		err := db.EnsureReady(context.Background(), ReadinessConfig{
			MaxAttempts: 3,
			Backoff:     time.Millisecond,
			FailFast:    true,
		})
		if err != nil {
			t.Fatalf("EnsureReady() error = %v", err)
		}

		applied, _, err := db.GetMigrationStatus(context.Background())
		if err != nil {
			t.Fatalf("GetMigrationStatus() error = %v", err)
		}
		if len(applied) == 0 {
			t.Error("EnsureReady() did not apply migrations")
		}
	})

	t.Run("fail fast returns last error", func(t *testing.T) {
		db := unreachableTestDB(t)

		err := db.EnsureReady(context.Background(), ReadinessConfig{
			MaxAttempts: 2,
			Backoff:     time.Millisecond,
			FailFast:    true,
		})
		if err == nil {
			t.Fatal("EnsureReady() expected error for unreachable store")
		}
	})

	t.Run("continues without store when fail fast disabled", func(t *testing.T) {
		db := unreachableTestDB(t)

		err := db.EnsureReady(context.Background(), ReadinessConfig{
			MaxAttempts: 2,
			Backoff:     time.Millisecond,
			FailFast:    false,
		})
		if err != nil {
			t.Fatalf("EnsureReady() error = %v, want nil with fail_fast disabled", err)
		}
	})

	t.Run("zero backoff retries without sleeping", func(t *testing.T) {
		db := unreachableTestDB(t)

		start := time.Now()
		err := db.EnsureReady(context.Background(), ReadinessConfig{
			MaxAttempts: 5,
			Backoff:     0,
			FailFast:    true,
		})
		if err == nil {
			t.Fatal("EnsureReady() expected error for unreachable store")
		}
		if elapsed := time.Since(start); elapsed >= DefaultReadinessBackoff {
			t.Errorf("zero backoff slept for %v, want immediate retries", elapsed)
		}
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		db := unreachableTestDB(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := db.EnsureReady(ctx, ReadinessConfig{
			MaxAttempts: 5,
			Backoff:     time.Minute,
			FailFast:    true,
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("EnsureReady() error = %v, want context.Canceled", err)
		}
	})
}

// unreachableTestDB returns a DB whose underlying store cannot be
// reached, for exercising readiness failure paths.
func unreachableTestDB(t *testing.T) *DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", "/nonexistent/path/sensors.db")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	db := &DB{DB: sqlDB, logger: noopLogger{}}
	t.Cleanup(func() { db.Close() })

	useTestMigrations(t)
	return db
}

func TestHealthCheck(t *testing.T) {
	db := setupTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// Package database provides the SQL store used by the sensor registry.
//
// It wraps database/sql with connection pooling, health checks, embedded
// schema migrations and a startup readiness loop. The production driver
// is pgx (PostgreSQL); tests run the same code against in-memory SQLite.
//
// Opening a connection is lazy: Open validates nothing against the
// server, so the store may be down when the process starts. EnsureReady
// is the startup gate that pings and migrates with retries until the
// schema exists.
//
// Migrations are plain SQL files embedded via MigrationsFS, named
// YYYYMMDD_HHMMSS_description.up.sql (with an optional matching
// .down.sql). Each migration runs in its own transaction and is
// recorded in schema_migrations, so Migrate is idempotent.
package database

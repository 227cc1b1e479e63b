// Package migrations embeds the SQL schema migrations and registers
// them with the database layer at init time. Importing this package
// (for side effects) is all a binary needs to make Migrate work.
package migrations

import (
	"embed"

	"github.com/nerrad567/sensor-manager/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}

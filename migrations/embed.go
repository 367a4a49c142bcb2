// Package migrations embeds SQL migration files into the binary.
//
// The mock keeps its database in memory by default, so the schema is
// recreated on every start; embedding means the binary never needs the
// SQL files present on the filesystem.
package migrations

import (
	"embed"

	"github.com/nerrad567/iotmock/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Register embedded migrations with the database package.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}

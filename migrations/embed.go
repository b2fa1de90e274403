// Package migrations embeds the entity store schema into the binary.
//
// Importing this package (usually for side effects) registers the files
// with the database package.
package migrations

import (
	"embed"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}

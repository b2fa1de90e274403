// Package dbtest opens a migrated entity store for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
	_ "github.com/fieldmesh/fieldmesh-core/migrations" // registers schema
)

// Open returns a fresh file-backed database in t.TempDir() with every
// migration applied. It is closed when the test ends.
func Open(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "fieldmesh-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("dbtest: opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("dbtest: migrating: %v", err)
	}
	return db
}

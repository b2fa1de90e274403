// Package database provides the SQLite entity store for FieldMesh Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Schema migrations embedded in the binary
//   - Shared column helpers (timestamps, NULLs, booleans, UNIQUE detection)
//
// Foreign keys are not declared or enforced. Cross-entity
// rules are applied by the entity services, which check and then write in
// separate statements.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database

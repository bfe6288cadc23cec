package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/phrazzld/lingua-engine/internal/store"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// latestSchemaVersion is the highest migration version this build knows
// about. A database reporting a higher version was written by a newer
// build and must not be opened.
const latestSchemaVersion = 2

// migrate brings the database schema up to the current version.
//
// Opening a database at an older version runs the pending additive
// migrations; opening one at a newer version fails with
// store.ErrUnsupportedSchema before any migration runs, so a newer
// build's data is never touched by an older binary.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("%w: failed to set migration dialect: %v",
			store.ErrStorageUnavailable, err)
	}

	current, err := goose.EnsureDBVersion(db)
	if err != nil {
		return fmt.Errorf("%w: failed to read schema version: %v",
			store.ErrStorageUnavailable, err)
	}

	if current > latestSchemaVersion {
		return fmt.Errorf("%w: database is at version %d, this build supports up to %d",
			store.ErrUnsupportedSchema, current, latestSchemaVersion)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("%w: migration failed: %v",
			store.ErrStorageUnavailable, err)
	}

	return nil
}

// Package migrations embeds the goose migrations of the local entry
// database (SQLite) and of the reference remote store (PostgreSQL).
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed client/*.sql server/*.sql
var embedMigrations embed.FS

// ErrNilDB is returned when a migration is requested on a nil *sql.DB.
var ErrNilDB = errors.New("db is nil")

// MigrateClient brings the local SQLite entry database up to date.
func MigrateClient(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, goose.DialectSQLite3, "client")
}

// MigrateServer brings the PostgreSQL entry store up to date.
func MigrateServer(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, goose.DialectPostgres, "server")
}

func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", ErrNilDB)
	}

	fsys, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		return fmt.Errorf("migration error opening %s migrations: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migration error creating provider: %w", err)
	}

	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/migrations"
)

const (
	// EntriesDBFileName is the name of the entry database inside the vault
	// directory.
	EntriesDBFileName = "entries.db"

	// sqliteDSNParams turns on WAL and full fsync so that a committed put
	// survives a crash, and makes concurrent readers wait instead of failing.
	sqliteDSNParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_foreign_keys=on"
)

// NewConnectSQLite opens (creating if needed) the entry database inside dir
// and applies the client migrations.
func NewConnectSQLite(ctx context.Context, dir string, log *logger.Logger) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating vault directory")
		return nil, fmt.Errorf("error creating vault directory: %w", err)
	}

	dsn := "file:" + filepath.Join(dir, EntriesDBFileName) + sqliteDSNParams
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	// ping database
	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, fmt.Errorf("error connecting database: %w", err)
	}

	if err = migrations.MigrateClient(ctx, conn); err != nil {
		conn.Close()
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error migrating database")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to database successfully")

	return &DB{
		DB:     conn,
		logger: log,
	}, nil
}

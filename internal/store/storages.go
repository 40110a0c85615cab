package store

import (
	"context"

	"github.com/MKhiriev/openlockr/internal/logger"
)

// Storages groups the server-side repositories.
type Storages struct {
	EntryRepository EntryRepository

	db *DB
}

// NewStorages connects to Postgres and builds every repository on top of
// the connection.
func NewStorages(ctx context.Context, dsn string, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(ctx, dsn, log)
	if err != nil {
		return nil, err
	}

	return &Storages{
		EntryRepository: NewEntryRepository(db, log),
		db:              db,
	}, nil
}

// Close closes the underlying connection pool.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/models"
)

// localStore is the SQLite-backed implementation of [LocalStore]. Entries
// live in <dir>/entries.db; the salt lives next to it in <dir>/vault.salt.
type localStore struct {
	*DB
	dir    string
	logger *logger.Logger

	// writeMu serializes Put so that the single SQLite writer never sees
	// SQLITE_BUSY from this process.
	writeMu sync.Mutex
	// saltMu guards the salt file.
	saltMu  sync.Mutex
	newSalt func() ([]byte, error)
	closed  atomic.Bool
}

// LocalStoreOption customises [NewLocalStore].
type LocalStoreOption func(*localStore)

// WithSaltSource replaces the salt generator used by LoadOrCreateSalt.
func WithSaltSource(fn func() ([]byte, error)) LocalStoreOption {
	return func(s *localStore) {
		s.newSalt = fn
	}
}

// NewLocalStore opens the vault in dir, creating the directory and the
// entry database on first use.
func NewLocalStore(ctx context.Context, dir string, log *logger.Logger, opts ...LocalStoreOption) (LocalStore, error) {
	db, err := NewConnectSQLite(ctx, dir, log)
	if err != nil {
		return nil, err
	}

	s := &localStore{
		DB:      db,
		dir:     dir,
		logger:  log,
		newSalt: crypto.NewKeyDeriver().GenerateSalt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put implements [LocalStore]. The upsert is a single statement, so SQLite
// makes it atomic: after a crash either the old or the new row is visible.
func (s *localStore) Put(ctx context.Context, entry models.Entry) (models.Entry, error) {
	if s.closed.Load() {
		return models.Entry{}, ErrStoreClosed
	}
	log := logger.FromContext(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var stored models.Entry
	err := s.DB.QueryRowContext(ctx, putLocalEntry, entry.ID, entry.Cipher, entry.Timestamp).
		Scan(&stored.ID, &stored.Cipher, &stored.Timestamp)
	if err != nil {
		log.Err(err).
			Str("func", "localStore.Put").
			Str("entry_id", entry.ID).
			Msg("failed to upsert entry")
		return models.Entry{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return stored, nil
}

// Get implements [LocalStore].
func (s *localStore) Get(ctx context.Context, id string) (models.Entry, bool, error) {
	if s.closed.Load() {
		return models.Entry{}, false, ErrStoreClosed
	}
	log := logger.FromContext(ctx)

	var entry models.Entry
	err := s.DB.QueryRowContext(ctx, getLocalEntry, id).
		Scan(&entry.ID, &entry.Cipher, &entry.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, false, nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "localStore.Get").
			Str("entry_id", id).
			Msg("failed to read entry")
		return models.Entry{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return entry, true, nil
}

// List implements [LocalStore].
func (s *localStore) List(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	log := logger.FromContext(ctx)

	rows, err := s.DB.QueryContext(ctx, listLocalEntryIDs)
	if err != nil {
		log.Err(err).Str("func", "localStore.List").Msg("failed to list entries")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ids := make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			log.Err(err).Str("func", "localStore.List").Msg("failed to scan entry id")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", "localStore.List").Msg("error iterating entries")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return ids, nil
}

// Close implements [LocalStore].
func (s *localStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	// wait for an in-flight put
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.DB.Close()
}

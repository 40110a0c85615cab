// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/models"
)

// entryRepository is the PostgreSQL-backed implementation of
// [EntryRepository]. Every method logs through the request-scoped logger
// obtained via [logger.FromContext].
type entryRepository struct {
	*DB
	logger *logger.Logger
}

// NewEntryRepository constructs an [EntryRepository] backed by db.
func NewEntryRepository(db *DB, log *logger.Logger) EntryRepository {
	return &entryRepository{
		DB:     db,
		logger: log,
	}
}

// UpsertEntry implements [EntryRepository].
func (r *entryRepository) UpsertEntry(ctx context.Context, entry models.StoredEntry) error {
	log := logger.FromContext(ctx)

	query, args, err := buildUpsertEntryQuery(entry)
	if err != nil {
		log.Err(err).Str("func", "entryRepository.UpsertEntry").Msg("failed to create query")
		return err
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "entryRepository.UpsertEntry").
			Str("entry_id", entry.ID).
			Str("device_id", entry.UpdatedBy).
			Msg("failed to execute upsert")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		log.Error().
			Str("func", "entryRepository.UpsertEntry").
			Str("entry_id", entry.ID).
			Msg("upsert affected no rows")
		return ErrEntryNotSaved
	}

	return nil
}

// GetEntry implements [EntryRepository].
func (r *entryRepository) GetEntry(ctx context.Context, id string) (models.StoredEntry, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetEntryQuery(id)
	if err != nil {
		log.Err(err).Str("func", "entryRepository.GetEntry").Msg("failed to create query")
		return models.StoredEntry{}, err
	}

	var (
		entry     models.StoredEntry
		updatedBy sql.NullString
		updatedAt sql.NullTime
	)
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(
		&entry.ID,
		&entry.Cipher,
		&entry.Timestamp,
		&updatedBy,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredEntry{}, ErrEntryNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "entryRepository.GetEntry").
			Str("entry_id", id).
			Msg("failed to query entry")
		return models.StoredEntry{}, fmt.Errorf("%w: %w", ErrScanningRow, r.classify(err))
	}

	entry.UpdatedBy = updatedBy.String
	if updatedAt.Valid {
		t := updatedAt.Time.UTC().Truncate(time.Microsecond)
		entry.UpdatedAt = &t
	}

	return entry, nil
}

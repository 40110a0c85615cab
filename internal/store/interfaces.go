package store

import (
	"context"

	"github.com/MKhiriev/openlockr/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// EntryRepository is the server-side document store behind the
// /api/entries endpoints.
type EntryRepository interface {
	// UpsertEntry stores entry under its id, replacing the cipher and
	// timestamp of an existing document.
	UpsertEntry(ctx context.Context, entry models.StoredEntry) error
	// GetEntry returns the document for id or [ErrEntryNotFound].
	GetEntry(ctx context.Context, id string) (models.StoredEntry, error)
}

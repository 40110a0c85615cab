package store

import (
	"context"

	"github.com/MKhiriev/openlockr/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// LocalStore is the durable on-device mapping id → (cipher, timestamp) plus
// the vault salt. Implementations serialize writes internally and are safe
// for concurrent use.
type LocalStore interface {
	// Put upserts entry and returns the stored row. The stored timestamp
	// never moves backwards for an id: a put carrying an older or equal
	// timestamp is stored with the previous timestamp + 1.
	Put(ctx context.Context, entry models.Entry) (models.Entry, error)

	// Get returns the entry for id. An absent id yields ok=false and a nil
	// error.
	Get(ctx context.Context, id string) (entry models.Entry, ok bool, err error)

	// List returns the ids of all stored entries in lexical order.
	List(ctx context.Context) ([]string, error)

	// LoadOrCreateSalt returns the vault salt, generating and persisting a
	// new one if the vault has none yet.
	LoadOrCreateSalt(ctx context.Context) ([]byte, error)

	// ImportSalt provisions the vault with a salt created on another
	// device. Importing the salt the vault already has is a no-op.
	ImportSalt(ctx context.Context, salt []byte) error

	// Close releases the database. Later calls fail with [ErrStoreClosed].
	Close() error
}

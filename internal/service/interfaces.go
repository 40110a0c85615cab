package service

import (
	"context"

	"github.com/MKhiriev/openlockr/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// Vault is the public surface of the vault engine. [Engine] implements it;
// the CLI and the background workers depend on this interface only.
type Vault interface {
	// Init derives the session key from passphrase and unlocks the vault.
	// passphrase is zeroed before Init returns.
	//
	// Init blocks for the whole Argon2id run (about 64 MiB of memory and up
	// to a few seconds). Hosts with a UI or an event loop should call it from
	// their own goroutine; cancelling ctx releases the caller early.
	Init(ctx context.Context, passphrase []byte) error

	// Lock encrypts plain under the session key and returns the base64
	// envelope.
	Lock(plain string) (string, error)
	// Unlock decrypts a base64 envelope produced by Lock.
	Unlock(cipher string) (string, error)

	// Save encrypts plain, stores it locally under id and uploads it.
	// onLocal is called once the local write settles, onRemote once the
	// upload settles. Both are called exactly once, on a worker goroutine.
	Save(ctx context.Context, id, plain string, onLocal func(error), onRemote func(error))

	// Load returns the plaintext of id through onDone, reading the local
	// store first and falling back to the remote store on a miss.
	Load(ctx context.Context, id string, onDone func(plain string, err error))

	// List returns the ids stored locally in lexical order.
	List(ctx context.Context) ([]string, error)

	// PushAll re-uploads every local entry and waits for the uploads.
	PushAll(ctx context.Context) error

	// Cleanup zeroes the session key. Every later operation fails with
	// [ErrNotInitialized] until Init is called again.
	Cleanup() error
}

// SaltSource provides the vault salt the session key is derived from.
// store.LocalStore satisfies it.
type SaltSource interface {
	LoadOrCreateSalt(ctx context.Context) ([]byte, error)
}

// Keyring gives scoped access to the session key.
type Keyring interface {
	WithKey(fn func(key []byte) error) error
}

// EntryService is the server-side document service behind the reference
// remote store.
type EntryService interface {
	// Put validates entry and upserts it, recording the device id found in
	// ctx as the last writer.
	Put(ctx context.Context, entry models.Entry) error
	// Get returns the document stored under id.
	Get(ctx context.Context, id string) (models.Entry, error)
}

// AppInfoService reports build information of the running server.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

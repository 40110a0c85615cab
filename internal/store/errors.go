package store

import "errors"

// Sentinel errors returned by the stores to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEntryNotFound is returned by the server-side repository when no
	// document exists for the requested id. The local store reports absence
	// through its ok flag instead.
	ErrEntryNotFound = errors.New("entry was not found")

	// ErrEntryNotSaved is returned when an upsert completes without error but
	// reports no affected row.
	ErrEntryNotSaved = errors.New("entry was not saved")

	// ErrStoreClosed is returned by every local store operation after Close.
	ErrStoreClosed = errors.New("store is closed")

	// ErrInvalidSalt is returned when the salt file exists but does not hold
	// exactly 16 bytes, or when a salt of the wrong size is imported.
	ErrInvalidSalt = errors.New("invalid vault salt")

	// ErrSaltMismatch is returned by ImportSalt when the vault already has a
	// different salt. Replacing it would orphan every stored entry.
	ErrSaltMismatch = errors.New("vault already has a different salt")

	// ErrRetryable wraps database errors that the Postgres classifier marks
	// as transient (connection loss, serialization failure, deadlock).
	ErrRetryable = errors.New("transient database error")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan entry row")

	// ErrScanningRows is returned when iterating a multi-row result fails.
	ErrScanningRows = errors.New("failed to scan entry rows")
)

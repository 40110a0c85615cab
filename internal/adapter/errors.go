package adapter

import "errors"

// Sentinel errors mapped from HTTP responses of the remote store.
var (
	// ErrNotFound is returned by Download when the document does not exist.
	ErrNotFound = errors.New("entry not found on remote")

	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInternalServerError = errors.New("remote internal server error")
	ErrBadGateway          = errors.New("bad gateway")
	ErrServiceUnavailable  = errors.New("remote service unavailable")

	// ErrRequest wraps transport failures: DNS, connection refused, timeout.
	ErrRequest = errors.New("remote request failed")

	// ErrInvalidResponse is returned when a 2xx response body cannot be used.
	ErrInvalidResponse = errors.New("invalid remote response")

	// ErrInvalidAddress is returned by the constructor for an unusable
	// remote address.
	ErrInvalidAddress = errors.New("invalid remote address")
)

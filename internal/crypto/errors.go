package crypto

import "errors"

// Sentinel errors of the crypto package. Callers match them with [errors.Is].
var (
	// ErrKDFFailure is returned when the key derivation function cannot run,
	// e.g. it could not allocate its working memory or the salt is invalid.
	ErrKDFFailure = errors.New("key derivation failed")

	// ErrRandomSource is returned when the CSPRNG fails to produce a salt or
	// a nonce.
	ErrRandomSource = errors.New("random source failure")

	// ErrInvalidKey is returned when a key of the wrong size is supplied.
	ErrInvalidKey = errors.New("invalid key size")

	// ErrMalformed is returned when an envelope is not valid base64 or is
	// shorter than version + nonce + tag.
	ErrMalformed = errors.New("malformed envelope")

	// ErrUnsupportedVersion is returned when the envelope version byte is
	// not known to this build.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")

	// ErrAuthFailure is returned when the AEAD tag does not verify: the key
	// is wrong or the envelope was modified.
	ErrAuthFailure = errors.New("envelope authentication failed")
)

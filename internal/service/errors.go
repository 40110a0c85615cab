package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/internal/store"
)

// vault engine errors
var (
	ErrNotInitialized     = errors.New("vault session is not initialized")
	ErrAlreadyInitialized = errors.New("vault session already initialized with a different passphrase")
	ErrInvalidID          = errors.New("invalid entry id")
	ErrLocalIO            = errors.New("local store failure")
	ErrCrypto             = errors.New("encryption failure")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrRemoteUnavailable  = errors.New("remote store unavailable")
	ErrCancelled          = errors.New("operation cancelled")
)

// ErrEngineClosed is returned for operations submitted after Engine.Close.
// Close also cleans up the session, so it reports as [ErrNotInitialized].
var ErrEngineClosed = fmt.Errorf("%w: vault engine is closed", ErrNotInitialized)

// envelope and key derivation errors are surfaced without substitution
var (
	ErrKDFFailure         = crypto.ErrKDFFailure
	ErrMalformed          = crypto.ErrMalformed
	ErrUnsupportedVersion = crypto.ErrUnsupportedVersion
	ErrAuthFailure        = crypto.ErrAuthFailure
)

// server side entry service errors
var (
	ErrValidationNoCipher        = errors.New("no cipher provided")
	ErrValidationBadTimestamp    = errors.New("timestamp must be positive")
	ErrValidationNoDeviceID      = errors.New("no device id in request context")
	ErrValidationInvalidEnvelope = errors.New("cipher is not a valid envelope")
	ErrVersionIsNotSpecified     = errors.New("app version is not specified")
)

// Stable error codes returned by [Code].
const (
	CodeOK                 = 0
	CodeNotInitialized     = 1
	CodeAlreadyInitialized = 2
	CodeInvalidID          = 3
	CodeKDFFailure         = 4
	CodeLocalIO            = 5
	CodeCrypto             = 6
	CodeMalformed          = 7
	CodeUnsupportedVersion = 8
	CodeAuthFailure        = 9
	CodeEntryNotFound      = 10
	CodeRemoteUnavailable  = 11
	CodeCancelled          = 12
	CodeOther              = 99
)

// errorCodes is checked in order: an error wrapping several sentinels gets
// the code of the first match.
var errorCodes = []struct {
	err  error
	code int
}{
	{ErrCancelled, CodeCancelled},
	{ErrNotInitialized, CodeNotInitialized},
	{ErrAlreadyInitialized, CodeAlreadyInitialized},
	{ErrInvalidID, CodeInvalidID},
	{ErrKDFFailure, CodeKDFFailure},
	{ErrLocalIO, CodeLocalIO},
	{store.ErrStoreClosed, CodeLocalIO},
	{ErrCrypto, CodeCrypto},
	{crypto.ErrRandomSource, CodeCrypto},
	{ErrMalformed, CodeMalformed},
	{ErrUnsupportedVersion, CodeUnsupportedVersion},
	{ErrAuthFailure, CodeAuthFailure},
	{ErrEntryNotFound, CodeEntryNotFound},
	{ErrRemoteUnavailable, CodeRemoteUnavailable},
}

// Code maps err to its stable integer code. nil maps to [CodeOK], anything
// unclassified to [CodeOther].
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeOther
}

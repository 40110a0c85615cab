// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors of the request pipeline. Callers can match against them
// with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// request has no "Authorization" header.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidEntryPath is returned when the entry id cannot be recovered
	// from the request path.
	ErrInvalidEntryPath = errors.New("invalid entry path")

	// ErrInvalidBody is returned when the upload body is not a JSON entry
	// document or exceeds [maxBodySize].
	ErrInvalidBody = errors.New("invalid request body")

	// ErrHashMismatch is returned by the body hash middleware when the
	// HashSHA256 header does not match the body.
	ErrHashMismatch = errors.New("body hash mismatch")
)

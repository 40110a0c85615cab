// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client side of the remote document store.
//
// The vault engine depends only on [RemoteClient]. The package ships an
// HTTP/REST implementation ([NewHTTPRemoteClient]) that talks to the
// reference server in cmd/server.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is]; the only value the
// engine distinguishes is [ErrNotFound].
package adapter

import (
	"context"

	"github.com/MKhiriev/openlockr/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_client_mock.go -package=mock

// RemoteClient uploads and downloads entry documents of the "entries"
// collection, keyed by entry id.
type RemoteClient interface {
	// Upload stores entry.Cipher and entry.Timestamp under entry.ID. It is an
	// idempotent upsert.
	Upload(ctx context.Context, entry models.Entry) error

	// Download returns the current server copy of id, or an error wrapping
	// [ErrNotFound] when the server has no such document. Any other error is
	// transient.
	Download(ctx context.Context, id string) (models.Entry, error)
}

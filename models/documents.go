// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// EntriesCollection is the name of the remote collection that holds entry
// documents. Documents are keyed by entry id.
const EntriesCollection = "entries"

// EntryDocument is the body of an upload request to the remote store.
// The id travels in the URL path, so only the two document fields are sent.
type EntryDocument struct {
	// Cipher is the base64 envelope.
	Cipher string `json:"cipher"`
	// Timestamp is the local write time in milliseconds since the epoch.
	Timestamp int64 `json:"timestamp"`
}

// StoredEntry is the server-side view of an entry document, including
// bookkeeping columns that are never sent back to clients.
type StoredEntry struct {
	Entry

	// UpdatedBy is the device id taken from the bearer token of the last
	// writer.
	UpdatedBy string `json:"-"`
	// UpdatedAt is the server time of the last write.
	UpdatedAt *time.Time `json:"-"`
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Entry is a single vault record: a user-chosen identifier together with the
// base64 envelope of its encrypted value.
//
// Entry never carries plaintext. The same value is stored locally and sent to
// the remote document store, so both sides agree on Cipher byte-for-byte.
type Entry struct {
	// ID is the user-chosen key of the entry. See [ValidateEntryID] for the
	// accepted character set.
	ID string `json:"id"`

	// Cipher is the base64 form of the versioned AEAD envelope.
	Cipher string `json:"cipher"`

	// Timestamp is the wall-clock time of the most recent successful local
	// write, in milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

// MaxEntryIDLength is the maximum length of an entry id in bytes.
const MaxEntryIDLength = 128

// ValidateEntryID reports whether id can be used as an entry key: it must be
// non-empty, at most [MaxEntryIDLength] bytes long and consist of printable
// ASCII characters only (0x20..0x7E), which also rules out embedded NULs.
func ValidateEntryID(id string) bool {
	if id == "" || len(id) > MaxEntryIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}

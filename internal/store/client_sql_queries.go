// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	putLocalEntry = `
		INSERT INTO entries (id, cipher, timestamp)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			cipher    = excluded.cipher,
			timestamp = MAX(excluded.timestamp, entries.timestamp + 1)
		RETURNING id, cipher, timestamp;`

	getLocalEntry = `
		SELECT id, cipher, timestamp
		FROM entries
		WHERE id = ?;`

	listLocalEntryIDs = `
		SELECT id
		FROM entries
		ORDER BY id;`
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"encoding/base64"

	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/models"
)

// Field name constants used to restrict validation to a subset of fields.
const (
	// FieldID targets the entry id.
	FieldID = "id"

	// FieldCipher targets the base64 envelope. Only its framing is checked:
	// the server never holds a key.
	FieldCipher = "cipher"

	// FieldTimestamp targets the client write time.
	FieldTimestamp = "timestamp"

	// FieldUpdatedBy targets the device id of the last writer.
	FieldUpdatedBy = "updated_by"
)

// minEnvelopeSize is the decoded size of an envelope with an empty plaintext.
const minEnvelopeSize = 1 + crypto.NonceSize + crypto.TagSize

// EntryValidator implements [Validator] for entry documents:
// models.Entry, models.StoredEntry and models.EntryDocument, by value or by
// pointer.
type EntryValidator struct {
}

// NewEntryValidator constructs a new EntryValidator and returns it as the
// Validator interface.
func NewEntryValidator() Validator {
	return &EntryValidator{}
}

// Validate dispatches validation to the type-specific method. Without
// fields every field of the type is checked.
func (v *EntryValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Entry:
		return v.validateEntry(ctx, value, fields...)
	case *models.Entry:
		return v.validateEntry(ctx, *value, fields...)

	case models.StoredEntry:
		return v.validateStoredEntry(ctx, value, fields...)
	case *models.StoredEntry:
		return v.validateStoredEntry(ctx, *value, fields...)

	case models.EntryDocument:
		return v.validateDocument(ctx, value, fields...)
	case *models.EntryDocument:
		return v.validateDocument(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *EntryValidator) validateEntry(ctx context.Context, entry models.Entry, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldCipher, FieldTimestamp}
	}

	for _, f := range fields {
		switch f {
		case FieldID:
			if !models.ValidateEntryID(entry.ID) {
				return ErrInvalidEntryID
			}
		case FieldCipher, FieldTimestamp:
			doc := models.EntryDocument{Cipher: entry.Cipher, Timestamp: entry.Timestamp}
			if err := v.validateDocument(ctx, doc, f); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *EntryValidator) validateStoredEntry(ctx context.Context, entry models.StoredEntry, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldCipher, FieldTimestamp, FieldUpdatedBy}
	}

	for _, f := range fields {
		if f == FieldUpdatedBy {
			if entry.UpdatedBy == "" {
				return ErrEmptyUpdatedBy
			}
			continue
		}
		if err := v.validateEntry(ctx, entry.Entry, f); err != nil {
			return err
		}
	}

	return nil
}

func (v *EntryValidator) validateDocument(_ context.Context, doc models.EntryDocument, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldCipher, FieldTimestamp}
	}

	for _, f := range fields {
		switch f {
		case FieldCipher:
			if doc.Cipher == "" {
				return ErrEmptyCipher
			}
			raw, err := base64.StdEncoding.DecodeString(doc.Cipher)
			if err != nil || len(raw) < minEnvelopeSize {
				return ErrMalformedCipher
			}
		case FieldTimestamp:
			if doc.Timestamp <= 0 {
				return ErrInvalidTimestamp
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

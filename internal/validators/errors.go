package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidEntryID   = errors.New("invalid entry id")
	ErrEmptyCipher      = errors.New("cipher is required")
	ErrMalformedCipher  = errors.New("cipher is not a base64 envelope")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrEmptyUpdatedBy   = errors.New("writer device id is required")
)

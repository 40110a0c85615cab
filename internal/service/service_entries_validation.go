package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/openlockr/internal/validators"
	"github.com/MKhiriev/openlockr/models"
)

// EntryValidationService validates documents before they reach the wrapped
// EntryService.
type EntryValidationService struct {
	inner     EntryService
	validator validators.Validator
}

// NewEntryValidationService returns a wrapper; call Wrap to attach it to
// the service it guards.
func NewEntryValidationService() *EntryValidationService {
	return &EntryValidationService{
		validator: validators.NewEntryValidator(),
	}
}

func (v *EntryValidationService) Put(ctx context.Context, entry models.Entry) error {
	if err := v.validator.Validate(ctx, entry); err != nil {
		return fmt.Errorf("error during entry validation before saving: %w", err)
	}

	return v.inner.Put(ctx, entry)
}

func (v *EntryValidationService) Get(ctx context.Context, id string) (models.Entry, error) {
	if err := v.validator.Validate(ctx, models.Entry{ID: id}, validators.FieldID); err != nil {
		return models.Entry{}, fmt.Errorf("error during entry id validation: %w", err)
	}

	return v.inner.Get(ctx, id)
}

func (v *EntryValidationService) Wrap(inner EntryService) EntryService {
	v.inner = inner
	return v
}

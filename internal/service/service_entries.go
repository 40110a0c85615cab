// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/store"
	"github.com/MKhiriev/openlockr/internal/utils"
	"github.com/MKhiriev/openlockr/models"
)

type entryService struct {
	entryRepository store.EntryRepository

	logger *logger.Logger
}

// NewEntryService creates the document service of the reference remote
// store. Writes are plain overwrites: the last request to arrive wins.
func NewEntryService(entryRepository store.EntryRepository, logger *logger.Logger) EntryService {
	return &entryService{
		entryRepository: entryRepository,
		logger:          logger,
	}
}

func (s *entryService) Put(ctx context.Context, entry models.Entry) error {
	deviceID, ok := utils.GetDeviceIDFromContext(ctx)
	if !ok {
		return ErrValidationNoDeviceID
	}

	err := s.entryRepository.UpsertEntry(ctx, models.StoredEntry{Entry: entry, UpdatedBy: deviceID})
	if err != nil {
		return fmt.Errorf("error saving entry: %w", err)
	}
	return nil
}

func (s *entryService) Get(ctx context.Context, id string) (models.Entry, error) {
	stored, err := s.entryRepository.GetEntry(ctx, id)
	if err != nil {
		return models.Entry{}, fmt.Errorf("error getting entry: %w", err)
	}
	return stored.Entry, nil
}

package service

import (
	"fmt"

	"github.com/MKhiriev/openlockr/internal/config"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/store"
)

// Services bundles the server-side services.
type Services struct {
	EntryService   EntryService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, cfg *config.ServerConfig, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating app info service: %w", err)
	}

	entries := NewEntryValidationService().Wrap(NewEntryService(storages.EntryRepository, logger))

	return &Services{
		EntryService:   entries,
		AppInfoService: appInfo,
	}, nil
}

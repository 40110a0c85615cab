package service

import (
	"context"
	"strings"

	"github.com/MKhiriev/openlockr/internal/config"
	"github.com/MKhiriev/openlockr/internal/logger"
)

// appInfoService reports the version of the running server: APP_VERSION
// when configured, otherwise the version injected at build time.
type appInfoService struct {
	version string
}

func NewAppInfoService(cfg config.ServerApp, log *logger.Logger) (AppInfoService, error) {
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	log.Info().Str("func", "NewAppInfoService").Str("version", version).Msg("serving version")
	return &appInfoService{version: version}, nil
}

func (s *appInfoService) GetAppVersion(context.Context) string {
	return s.version
}

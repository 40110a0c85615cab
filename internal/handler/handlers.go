package handler

import (
	"github.com/MKhiriev/openlockr/internal/config"
	"github.com/MKhiriev/openlockr/internal/handler/http"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, cfg *config.ServerConfig, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.Server.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}
	if cfg.App.TokenSignKey == "" {
		return nil, errNoTokenSignKey
	}

	return &Handlers{HTTP: http.NewHandler(services, cfg.App, logger)}, nil
}

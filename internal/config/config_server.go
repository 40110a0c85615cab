package config

import (
	"fmt"
	"time"
)

const (
	defaultServerAddress   = ":8080"
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerApp holds token verification settings of the server.
type ServerApp struct {
	TokenSignKey string
	TokenIssuer  string
	Version      string
}

// ServerNet holds listener settings of the server.
type ServerNet struct {
	HTTPAddress     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// ServerConfig is the top-level configuration of the reference remote store.
type ServerConfig struct {
	App     ServerApp
	Server  ServerNet
	Storage Storage
}

// GetServerConfig builds and validates the server view of the merged
// configuration.
func GetServerConfig(args []string) (*ServerConfig, error) {
	cfg, _, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := NewServerConfig(cfg)
	return serverCfg, serverCfg.validate()
}

// NewServerConfig maps the server-relevant fields of cfg and fills in
// defaults for the listen address and timeouts.
func NewServerConfig(cfg *StructuredConfig) *ServerConfig {
	serverCfg := &ServerConfig{
		App: ServerApp{
			TokenSignKey: cfg.App.TokenSignKey,
			TokenIssuer:  cfg.App.TokenIssuer,
			Version:      cfg.App.Version,
		},
		Server: ServerNet{
			HTTPAddress:     cfg.Server.HTTPAddress,
			RequestTimeout:  cfg.Server.RequestTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		},
		Storage: cfg.Storage,
	}

	if serverCfg.Server.HTTPAddress == "" {
		serverCfg.Server.HTTPAddress = defaultServerAddress
	}
	if serverCfg.Server.RequestTimeout == 0 {
		serverCfg.Server.RequestTimeout = defaultRequestTimeout
	}
	if serverCfg.Server.ShutdownTimeout == 0 {
		serverCfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}

	return serverCfg
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRemoteTimeout = 30 * time.Second
	defaultVaultDirName  = "openlockr"
)

// ClientApp holds the token settings of the client.
type ClientApp struct {
	// DeviceID is the subject of every device token.
	DeviceID string
	// TokenSignKey signs device tokens.
	TokenSignKey string
	// TokenIssuer is the "iss" claim of device tokens.
	TokenIssuer string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the remote store address.
	HTTPAddress string
	// RequestTimeout is the timeout of every outbound request.
	RequestTimeout time.Duration
}

// ClientVault holds the local vault location.
type ClientVault struct {
	Dir string
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the push worker runs; zero disables it.
	SyncInterval time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Vault   ClientVault
	Workers ClientWorkers

	// Args are the positional arguments left after flag parsing: the CLI
	// command and its operands.
	Args []string
}

// GetClientConfig builds and validates the client view of the merged
// configuration. args are the command-line arguments without the program
// name.
func GetClientConfig(args []string) (*ClientConfig, error) {
	cfg, rest, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg, rest)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps the client-relevant fields of cfg and fills in
// defaults for the vault directory, device id and request timeout.
func NewClientConfig(cfg *StructuredConfig, args []string) *ClientConfig {
	clientCfg := &ClientConfig{
		App: ClientApp{
			DeviceID:     cfg.App.DeviceID,
			TokenSignKey: cfg.App.TokenSignKey,
			TokenIssuer:  cfg.App.TokenIssuer,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Vault: ClientVault{
			Dir: cfg.Vault.Dir,
		},
		Workers: ClientWorkers{SyncInterval: cfg.Workers.SyncInterval},
		Args:    args,
	}

	if clientCfg.Vault.Dir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			clientCfg.Vault.Dir = filepath.Join(base, defaultVaultDirName)
		}
	}
	if clientCfg.App.DeviceID == "" {
		clientCfg.App.DeviceID = defaultDeviceID()
	}
	if clientCfg.Adapter.RequestTimeout == 0 {
		clientCfg.Adapter.RequestTimeout = defaultRemoteTimeout
	}

	return clientCfg
}

func defaultDeviceID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

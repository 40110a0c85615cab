package config

import (
	"errors"
	"flag"
	"io"
	"net"
	"strconv"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the configuration flags in args and returns the
// remaining positional arguments.
//
// Flags:
//
//	-a server listen address in format [host]:[port]
//	-d database DSN
//	-c/-config json file path with configs
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-device-id device id used as token subject
//	-request-timeout server request timeout (e.g., "30s", "1m")
//	-shutdown-timeout server graceful shutdown timeout
//	-r remote store address used by the client
//	-remote-timeout client request timeout
//	-vault local vault directory
//	-sync-interval background push interval, 0 disables
func ParseFlags(args []string) (*StructuredConfig, []string, error) {
	var (
		serverAddress   NetAddress
		databaseDSN     string
		jsonConfigPath  string
		tokenSignKey    string
		tokenIssuer     string
		deviceID        string
		requestTimeout  time.Duration
		shutdownTimeout time.Duration
		remoteAddress   string
		remoteTimeout   time.Duration
		vaultDir        string
		syncInterval    time.Duration
	)

	fs := flag.NewFlagSet("openlockr", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	fs.StringVar(&deviceID, "device-id", "", "Device id")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Server request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&shutdownTimeout, "shutdown-timeout", 0, "Server shutdown timeout")
	fs.StringVar(&remoteAddress, "r", "", "Remote store address")
	fs.DurationVar(&remoteTimeout, "remote-timeout", 0, "Remote request timeout")
	fs.StringVar(&vaultDir, "vault", "", "Local vault directory")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval, 0 disables")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return &StructuredConfig{
		App: App{
			TokenSignKey: tokenSignKey,
			TokenIssuer:  tokenIssuer,
			DeviceID:     deviceID,
		},
		Vault: Vault{
			Dir: vaultDir,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:     serverAddress.String(),
			RequestTimeout:  requestTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    remoteAddress,
			RequestTimeout: remoteTimeout,
		},
		Workers: Workers{
			SyncInterval: syncInterval,
		},
		JSONFilePath: jsonConfigPath,
	}, fs.Args(), nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set parses the input string of form host:port and populates the NetAddress.
// An empty host means all interfaces. Hosts other than "localhost" must be
// IP literals.
func (a *NetAddress) Set(s string) error {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1..65535")
	}

	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return errors.New("incorrect IP-address provided")
	}

	a.Host = host
	a.Port = port
	return nil
}

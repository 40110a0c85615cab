package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/openlockr/internal/adapter"
	"github.com/MKhiriev/openlockr/internal/client"
	"github.com/MKhiriev/openlockr/internal/config"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/service"
	"github.com/MKhiriev/openlockr/internal/store"
	"github.com/MKhiriev/openlockr/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const closeTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// wipe any locked key buffers still alive on the way out
	defer memguard.Purge()

	cfg, err := config.GetClientConfig(os.Args[1:])
	if cfg != nil && len(cfg.Args) > 0 && cfg.Args[0] == "version" {
		printBuildInfo()
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "openlockr: %v\n", err)
		return client.ExitCode(fmt.Errorf("%w: %w", client.ErrUsage, err))
	}
	if len(cfg.Args) == 0 {
		fmt.Fprintln(os.Stderr, client.Usage)
		return client.ExitCode(client.ErrUsage)
	}

	log := logger.NewClientLogger("openlockr", cfg.Vault.Dir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local, err := store.NewLocalStore(ctx, cfg.Vault.Dir, log)
	if err != nil {
		log.Err(err).Msg("error opening local store")
		fmt.Fprintf(os.Stderr, "openlockr: %v\n", err)
		return service.CodeLocalIO
	}
	defer local.Close()

	remote, err := adapter.NewHTTPRemoteClient(cfg.Adapter, cfg.App, log)
	if err != nil {
		log.Err(err).Msg("error creating remote client")
		fmt.Fprintf(os.Stderr, "openlockr: %v\n", err)
		return client.ExitCode(fmt.Errorf("%w: %w", client.ErrUsage, err))
	}

	engine := service.NewEngine(local, remote, log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := engine.Close(closeCtx); err != nil {
			log.Err(err).Msg("error closing vault engine")
		}
	}()

	app := client.NewApp(engine, local, client.NewTerminalReader(os.Stdin, os.Stderr), cfg.Workers.SyncInterval, log)
	if err = app.Run(ctx, cfg.Args); err != nil {
		log.Err(err).Int("code", engine.Code(err)).Msg("command failed")
		fmt.Fprintf(os.Stderr, "openlockr: %v\n", err)
		return client.ExitCode(err)
	}
	return 0
}

func printBuildInfo() {
	info := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	fmt.Printf("Build version: %s\n", info.BuildVersion)
	fmt.Printf("Build date: %s\n", info.BuildDate)
	fmt.Printf("Build commit: %s\n", info.BuildCommit)
}

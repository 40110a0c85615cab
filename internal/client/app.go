package client

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"

	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/service"
	"github.com/MKhiriev/openlockr/internal/workers"
)

// Usage lists the commands understood by [App.Run].
const Usage = `usage: openlockr [flags] <command> [args]

commands:
  put <id>             read a secret and store it under id
  get [-copy] <id>     print the secret stored under id, or copy it
  list                 list the ids stored locally
  push                 re-upload every local entry
  sync                 push periodically until interrupted
  salt                 print the vault salt in base64
  salt-import <b64>    install a salt exported from another device`

type App struct {
	vault       service.Vault
	salts       SaltStore
	workers     *workers.Workers
	secrets     SecretReader
	passphrases SecretReader

	copyToClipboard func(string) error
	out             io.Writer

	logger *logger.Logger
}

// AppOption customizes an [App].
type AppOption func(*App)

// WithOutput redirects command output, os.Stdout by default.
func WithOutput(out io.Writer) AppOption {
	return func(a *App) { a.out = out }
}

// WithClipboard replaces the system clipboard used by get -copy.
func WithClipboard(fn func(string) error) AppOption {
	return func(a *App) { a.copyToClipboard = fn }
}

// WithEnv replaces os.LookupEnv for the passphrase override.
func WithEnv(lookup func(string) (string, bool)) AppOption {
	return func(a *App) { a.passphrases = envOrReader{lookup: lookup, next: a.secrets} }
}

// NewApp creates the command-line host over vault. salts is used by the salt
// commands, which do not unlock the vault. syncInterval drives the sync
// command.
func NewApp(vault service.Vault, salts SaltStore, secrets SecretReader, syncInterval time.Duration, log *logger.Logger, opts ...AppOption) *App {
	a := &App{
		vault:           vault,
		salts:           salts,
		workers:         workers.NewWorkers(workers.NewSyncWorker(vault, syncInterval, log)),
		secrets:         secrets,
		passphrases:     envOrReader{lookup: os.LookupEnv, next: secrets},
		copyToClipboard: clipboard.WriteAll,
		out:             os.Stdout,
		logger:          log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run implements [Client].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "salt":
		return a.printSalt(ctx)
	case "salt-import":
		return a.importSalt(ctx, rest)
	case "put", "get", "list", "push", "sync":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	if err := a.unlock(ctx); err != nil {
		return err
	}
	defer func() { _ = a.vault.Cleanup() }()

	a.logger.Debug().Str("func", "*App.Run").Str("command", cmd).Msg("running command")

	switch cmd {
	case "put":
		return a.put(ctx, rest)
	case "get":
		return a.get(ctx, rest)
	case "list":
		return a.list(ctx)
	case "push":
		return a.vault.PushAll(ctx)
	default:
		return a.sync(ctx)
	}
}

func (a *App) unlock(ctx context.Context) error {
	passphrase, err := a.passphrases.ReadSecret("Passphrase: ")
	if err != nil {
		return err
	}
	if len(passphrase) == 0 {
		return fmt.Errorf("%w: passphrase", ErrEmptySecret)
	}
	return a.vault.Init(ctx, passphrase)
}

func (a *App) put(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: put <id>", ErrUsage)
	}
	id := args[0]

	secret, err := a.secrets.ReadSecret("Secret for " + id + ": ")
	if err != nil {
		return err
	}
	defer crypto.Zero(secret)
	if len(secret) == 0 {
		return fmt.Errorf("%w: value of %q", ErrEmptySecret, id)
	}

	local := make(chan error, 1)
	remote := make(chan error, 1)
	a.vault.Save(ctx, id, string(secret),
		func(err error) { local <- err },
		func(err error) { remote <- err },
	)

	if err = <-local; err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %q locally\n", id)

	if err = <-remote; err != nil {
		a.logger.Warn().Err(err).Str("func", "*App.put").Str("entry_id", id).Msg("upload failed")
		fmt.Fprintf(a.out, "upload of %q failed, run push later: %v\n", id, err)
		return nil
	}
	fmt.Fprintf(a.out, "uploaded %q\n", id)
	return nil
}

func (a *App) get(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	copyValue := fs.Bool("copy", false, "copy the secret to the clipboard instead of printing it")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: get [-copy] <id>", ErrUsage)
	}
	id := fs.Arg(0)

	type result struct {
		plain string
		err   error
	}
	done := make(chan result, 1)
	a.vault.Load(ctx, id, func(plain string, err error) {
		done <- result{plain: plain, err: err}
	})

	res := <-done
	if res.err != nil {
		return res.err
	}

	if *copyValue {
		if err := a.copyToClipboard(res.plain); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintf(a.out, "copied %q to the clipboard\n", id)
		return nil
	}
	fmt.Fprintln(a.out, res.plain)
	return nil
}

func (a *App) list(ctx context.Context) error {
	ids, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(a.out, id)
	}
	return nil
}

// sync pushes once, then keeps pushing in the background until ctx is done.
func (a *App) sync(ctx context.Context) error {
	if err := a.vault.PushAll(ctx); err != nil {
		a.logger.Warn().Err(err).Str("func", "*App.sync").Msg("initial push failed")
		fmt.Fprintf(a.out, "initial push failed: %v\n", err)
	}

	a.workers.Start(ctx)
	defer a.workers.Stop()

	<-ctx.Done()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (a *App) printSalt(ctx context.Context) error {
	salt, err := a.salts.LoadOrCreateSalt(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", service.ErrLocalIO, err)
	}
	fmt.Fprintln(a.out, base64.StdEncoding.EncodeToString(salt))
	return nil
}

func (a *App) importSalt(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: salt-import <b64>", ErrUsage)
	}
	salt, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("%w: salt is not base64: %w", ErrUsage, err)
	}
	if err = a.salts.ImportSalt(ctx, salt); err != nil {
		return fmt.Errorf("%w: %w", service.ErrLocalIO, err)
	}
	fmt.Fprintln(a.out, "salt imported")
	return nil
}

// ExitCode maps err to the process exit status: the stable engine code, or
// 64 (EX_USAGE) for command-line mistakes.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage), errors.Is(err, ErrUnknownCommand):
		return 64
	}
	return service.Code(err)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/openlockr/internal/adapter"
	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/store"
)

// Engine is the vault engine. It owns the current [Session] and a
// [SyncCoordinator] and implements [Vault].
//
// Cleanup ends the current session; the next Init starts a fresh one, so a
// host can lock the vault and unlock it again, possibly with another
// passphrase, without rebuilding the engine.
type Engine struct {
	deriver  crypto.KeyDeriver
	envelope crypto.Envelope
	local    store.LocalStore
	coord    *SyncCoordinator

	logger *logger.Logger

	mu      sync.Mutex
	session *Session
}

// EngineOption customizes an [Engine].
type EngineOption func(*Engine)

// WithKeyDeriver replaces the Argon2id key deriver.
func WithKeyDeriver(d crypto.KeyDeriver) EngineOption {
	return func(e *Engine) {
		e.deriver = d
	}
}

// WithEnvelope replaces the AES-256-GCM envelope.
func WithEnvelope(env crypto.Envelope) EngineOption {
	return func(e *Engine) {
		e.envelope = env
	}
}

// NewEngine creates an engine over local and remote. The engine does not
// own local; closing it is up to the caller.
func NewEngine(local store.LocalStore, remote adapter.RemoteClient, log *logger.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		deriver:  crypto.NewKeyDeriver(),
		envelope: crypto.NewEnvelope(),
		local:    local,
		logger:   log,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.session = NewSession(e.deriver, local)
	e.coord = NewSyncCoordinator(e, e.envelope, local, remote, log)
	return e
}

func (e *Engine) currentSession() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Init implements [Vault]. It blocks until the key derivation finishes or
// ctx is done.
func (e *Engine) Init(ctx context.Context, passphrase []byte) error {
	e.mu.Lock()
	if e.session.Cleaned() {
		e.session = NewSession(e.deriver, e.local)
	}
	s := e.session
	e.mu.Unlock()

	if err := s.Init(ctx, passphrase); err != nil {
		e.logger.Err(err).Str("func", "*Engine.Init").Msg("failed to initialize session")
		return err
	}

	e.logger.Info().Str("func", "*Engine.Init").Msg("vault unlocked")
	return nil
}

// WithKey implements [Keyring] on top of the current session.
func (e *Engine) WithKey(fn func(key []byte) error) error {
	return e.currentSession().WithKey(fn)
}

// Lock implements [Vault].
func (e *Engine) Lock(plain string) (string, error) {
	return e.coord.encrypt(plain)
}

// Unlock implements [Vault].
func (e *Engine) Unlock(cipher string) (string, error) {
	return e.coord.decrypt(cipher)
}

// Save implements [Vault].
func (e *Engine) Save(ctx context.Context, id, plain string, onLocal func(error), onRemote func(error)) {
	e.coord.Save(ctx, id, plain, onLocal, onRemote)
}

// Load implements [Vault].
func (e *Engine) Load(ctx context.Context, id string, onDone func(plain string, err error)) {
	e.coord.Load(ctx, id, onDone)
}

// List implements [Vault].
func (e *Engine) List(ctx context.Context) ([]string, error) {
	if !e.currentSession().Unlocked() {
		return nil, ErrNotInitialized
	}

	ids, err := e.local.List(ctx)
	if err != nil {
		e.logger.Err(err).Str("func", "*Engine.List").Msg("failed to list local entries")
		return nil, fmt.Errorf("%w: %w", ErrLocalIO, err)
	}
	return ids, nil
}

// PushAll implements [Vault]. Every local entry goes through its lane, so a
// push never overtakes a save accepted before it. The returned error joins
// the failures of the individual uploads.
func (e *Engine) PushAll(ctx context.Context) error {
	ids, err := e.List(ctx)
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	wg.Add(len(ids))
	for _, id := range ids {
		id := id
		e.coord.Push(ctx, id, func(err error) {
			defer wg.Done()
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("push %q: %w", id, err))
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	e.logger.Info().Str("func", "*Engine.PushAll").
		Int("entries", len(ids)).
		Int("failed", len(errs)).
		Msg("push finished")
	return errors.Join(errs...)
}

// Cleanup implements [Vault]. It always succeeds.
func (e *Engine) Cleanup() error {
	e.currentSession().Cleanup()
	e.logger.Info().Str("func", "*Engine.Cleanup").Msg("vault locked")
	return nil
}

// Code returns the stable code of err. See [Code].
func (e *Engine) Code(err error) int {
	return Code(err)
}

// Close stops accepting operations, waits for the accepted ones to settle or
// for ctx to be done, then cleans up the session.
func (e *Engine) Close(ctx context.Context) error {
	err := e.coord.Close(ctx)
	_ = e.Cleanup()
	return err
}

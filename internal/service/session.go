// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/openlockr/internal/crypto"
)

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateUnlocked
	stateCleaned
)

// Session owns the session key for one unlock window.
//
// The key lives in a read-only memguard buffer: mlocked, surrounded by guard
// pages and never moved by the garbage collector. It is only reachable
// through [Session.WithKey], which holds a read lock for the duration of the
// callback. [Session.Cleanup] takes the write lock, so it waits for every
// in-progress key use before destroying the buffer.
type Session struct {
	deriver crypto.KeyDeriver
	salts   SaltSource

	// initMu serializes Init calls; mu guards the fields below.
	initMu sync.Mutex
	mu     sync.RWMutex
	state  sessionState
	key    *memguard.LockedBuffer
	salt   []byte
}

// NewSession creates an uninitialized session that derives its key with
// deriver from the salt provided by salts.
func NewSession(deriver crypto.KeyDeriver, salts SaltSource) *Session {
	return &Session{
		deriver: deriver,
		salts:   salts,
	}
}

// Init derives the session key from passphrase and the vault salt and moves
// the session to the unlocked state. passphrase is zeroed before Init
// returns, whatever the outcome.
//
// On an unlocked session Init re-derives the key and compares it in constant
// time: the same passphrase is a no-op, a different one fails with
// [ErrAlreadyInitialized]. A cleaned session never unlocks again.
func (s *Session) Init(ctx context.Context, passphrase []byte) error {
	defer crypto.Zero(passphrase)

	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.RLock()
	state, salt := s.state, s.salt
	s.mu.RUnlock()

	switch state {
	case stateCleaned:
		return ErrNotInitialized
	case stateUnlocked:
		candidate, err := s.derive(ctx, passphrase, salt)
		if err != nil {
			return err
		}
		defer crypto.Zero(candidate)

		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.state != stateUnlocked {
			return ErrNotInitialized
		}
		if !s.key.EqualTo(candidate) {
			return ErrAlreadyInitialized
		}
		return nil
	}

	salt, err := s.salts.LoadOrCreateSalt(ctx)
	if err != nil {
		return fmt.Errorf("%w: load vault salt: %w", ErrLocalIO, err)
	}

	key, err := s.derive(ctx, passphrase, salt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateUninitialized {
		crypto.Zero(key)
		return ErrNotInitialized
	}
	// NewBufferFromBytes wipes key once it is copied into locked memory.
	buf := memguard.NewBufferFromBytes(key)
	buf.Freeze()
	s.key, s.salt, s.state = buf, salt, stateUnlocked
	return nil
}

type deriveResult struct {
	key []byte
	err error
}

// derive runs the KDF on its own goroutine so that a cancelled ctx releases
// the caller immediately. A key derived after the caller gave up is zeroed.
func (s *Session) derive(ctx context.Context, passphrase, salt []byte) ([]byte, error) {
	pass := bytes.Clone(passphrase)
	results := make(chan deriveResult)

	go func() {
		defer crypto.Zero(pass)

		key, err := s.deriver.DeriveKey(pass, salt)
		select {
		case results <- deriveResult{key: key, err: err}:
		case <-ctx.Done():
			crypto.Zero(key)
		}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			if errors.Is(res.err, crypto.ErrKDFFailure) {
				return nil, res.err
			}
			return nil, fmt.Errorf("%w: %w", ErrKDFFailure, res.err)
		}
		return res.key, nil
	case <-ctx.Done():
		return nil, ErrCancelled
	}
}

// WithKey calls fn with the session key while holding the read lock. key is
// read-only and fn must not retain it after it returns: once the session is
// cleaned up its memory is unmapped. Without an unlocked session WithKey
// returns [ErrNotInitialized] and does not call fn.
func (s *Session) WithKey(fn func(key []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != stateUnlocked {
		return ErrNotInitialized
	}
	return fn(s.key.Bytes())
}

// Unlocked reports whether the session currently holds a key.
func (s *Session) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateUnlocked
}

// Cleaned reports whether Cleanup has been called.
func (s *Session) Cleaned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateCleaned
}

// Cleanup wipes and destroys the key buffer and moves the session to its
// terminal state. It is idempotent.
func (s *Session) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		s.key.Destroy()
	}
	s.key, s.salt = nil, nil
	s.state = stateCleaned
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/internal/logger"
)

// SaltFileName is the name of the salt file inside the vault directory.
const SaltFileName = "vault.salt"

// LoadOrCreateSalt implements [LocalStore].
func (s *localStore) LoadOrCreateSalt(ctx context.Context) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	log := logger.FromContext(ctx)

	s.saltMu.Lock()
	defer s.saltMu.Unlock()

	salt, err := s.readSalt()
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		log.Err(err).Str("func", "localStore.LoadOrCreateSalt").Msg("failed to read vault salt")
		return nil, err
	}

	salt, err = s.newSalt()
	if err != nil {
		log.Err(err).Str("func", "localStore.LoadOrCreateSalt").Msg("failed to generate vault salt")
		return nil, fmt.Errorf("generate vault salt: %w", err)
	}
	if err = s.writeSalt(salt); err != nil {
		log.Err(err).Str("func", "localStore.LoadOrCreateSalt").Msg("failed to persist vault salt")
		return nil, err
	}
	log.Info().Str("func", "localStore.LoadOrCreateSalt").Msg("created new vault salt")

	return salt, nil
}

// ImportSalt implements [LocalStore].
func (s *localStore) ImportSalt(ctx context.Context, salt []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if len(salt) != crypto.SaltSize {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSalt, crypto.SaltSize, len(salt))
	}
	log := logger.FromContext(ctx)

	s.saltMu.Lock()
	defer s.saltMu.Unlock()

	existing, err := s.readSalt()
	switch {
	case err == nil && bytes.Equal(existing, salt):
		return nil
	case err == nil:
		log.Warn().Str("func", "localStore.ImportSalt").Msg("refusing to replace existing vault salt")
		return ErrSaltMismatch
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	if err = s.writeSalt(salt); err != nil {
		log.Err(err).Str("func", "localStore.ImportSalt").Msg("failed to persist imported vault salt")
		return err
	}
	log.Info().Str("func", "localStore.ImportSalt").Msg("imported vault salt")
	return nil
}

func (s *localStore) saltPath() string {
	return filepath.Join(s.dir, SaltFileName)
}

func (s *localStore) readSalt() ([]byte, error) {
	salt, err := os.ReadFile(s.saltPath())
	if err != nil {
		return nil, fmt.Errorf("read vault salt: %w", err)
	}
	if len(salt) != crypto.SaltSize {
		return nil, fmt.Errorf("%w: %s holds %d bytes", ErrInvalidSalt, SaltFileName, len(salt))
	}
	return salt, nil
}

// writeSalt writes the salt to a temporary file, fsyncs it and renames it
// over vault.salt, then fsyncs the directory so the rename is durable.
func (s *localStore) writeSalt(salt []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, SaltFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary salt file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(salt); err != nil {
		tmp.Close()
		return fmt.Errorf("write temporary salt file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temporary salt file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temporary salt file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.saltPath()); err != nil {
		return fmt.Errorf("rename salt file: %w", err)
	}

	return syncDir(s.dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open vault directory: %w", err)
	}
	defer d.Close()
	if err = d.Sync(); err != nil {
		return fmt.Errorf("sync vault directory: %w", err)
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the size of the per-vault salt in bytes.
	SaltSize = 16
	// KeySize is the size of the derived session key in bytes (AES-256).
	KeySize = 32
)

// KDFParams are the Argon2id tuning parameters. Devices that share a vault
// must use identical parameters, otherwise they derive different keys.
type KDFParams struct {
	// Time is the number of passes over memory.
	Time uint32
	// Memory is the memory cost in KiB.
	Memory uint32
	// Threads is the degree of parallelism.
	Threads uint8
}

// DefaultKDFParams returns the parameters every OpenLockr vault uses:
//   - time cost:   3 iterations
//   - memory cost: 64 MiB
//   - parallelism: 1 thread
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:    3,
		Memory:  64 * 1024, // 64 MiB
		Threads: 1,
	}
}

// argon2KeyDeriver is the Argon2id implementation of [KeyDeriver].
type argon2KeyDeriver struct {
	params KDFParams
	rand   io.Reader
}

// NewKeyDeriver constructs a [KeyDeriver] with [DefaultKDFParams].
func NewKeyDeriver() KeyDeriver {
	return NewKeyDeriverWithParams(DefaultKDFParams())
}

// NewKeyDeriverWithParams constructs a [KeyDeriver] with custom Argon2id
// parameters. It exists for tests and benchmarks; production vaults use
// [NewKeyDeriver] so that every device agrees on the parameters.
func NewKeyDeriverWithParams(params KDFParams) KeyDeriver {
	return &argon2KeyDeriver{params: params, rand: rand.Reader}
}

// GenerateSalt implements [KeyDeriver].
func (k *argon2KeyDeriver) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(k.rand, salt); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRandomSource, err)
	}
	return salt, nil
}

// DeriveKey implements [KeyDeriver]. A panic raised by the KDF (argon2
// panics on impossible parameters) is converted into [ErrKDFFailure].
func (k *argon2KeyDeriver) DeriveKey(passphrase, salt []byte) (key []byte, err error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrKDFFailure, SaltSize, len(salt))
	}
	if k.params.Time == 0 || k.params.Memory == 0 || k.params.Threads == 0 {
		return nil, fmt.Errorf("%w: invalid argon2id parameters", ErrKDFFailure)
	}

	defer func() {
		if r := recover(); r != nil {
			key = nil
			err = fmt.Errorf("%w: %v", ErrKDFFailure, r)
		}
	}()

	return argon2.IDKey(passphrase, salt, k.params.Time, k.params.Memory, k.params.Threads, KeySize), nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	// EnvelopeVersion is the only envelope version this build writes and
	// reads. It is also the associated data of the AEAD.
	EnvelopeVersion byte = 0x01

	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM tag size in bytes.
	TagSize = 16

	envelopeHeaderSize = 1 + NonceSize
	envelopeMinSize    = envelopeHeaderSize + TagSize
)

// aesGCMEnvelope is the AES-256-GCM implementation of [Envelope].
type aesGCMEnvelope struct {
	rand io.Reader
}

// NewEnvelope constructs an [Envelope] drawing nonces from crypto/rand.
func NewEnvelope() Envelope {
	return &aesGCMEnvelope{rand: rand.Reader}
}

// NewEnvelopeWithRand constructs an [Envelope] drawing nonces from r.
// r must be a CSPRNG; nonce reuse under one key breaks AES-GCM.
func NewEnvelopeWithRand(r io.Reader) Envelope {
	return &aesGCMEnvelope{rand: r}
}

// Encrypt implements [Envelope]. The output is
// base64(version ‖ nonce ‖ ciphertext ‖ tag) with standard encoding.
func (e *aesGCMEnvelope) Encrypt(plain, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	blob := make([]byte, envelopeHeaderSize, envelopeHeaderSize+len(plain)+TagSize)
	blob[0] = EnvelopeVersion
	if _, err = io.ReadFull(e.rand, blob[1:envelopeHeaderSize]); err != nil {
		return "", fmt.Errorf("%w: generate nonce: %w", ErrRandomSource, err)
	}

	blob = gcm.Seal(blob, blob[1:envelopeHeaderSize], plain, blob[:1])
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt implements [Envelope].
func (e *aesGCMEnvelope) Decrypt(envelope string, key []byte) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %w", ErrMalformed, err)
	}
	if len(blob) < envelopeMinSize {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrMalformed, len(blob), envelopeMinSize)
	}
	if blob[0] != EnvelopeVersion {
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedVersion, blob[0])
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, blob[1:envelopeHeaderSize], blob[envelopeHeaderSize:], blob[:1])
	if err != nil {
		return nil, ErrAuthFailure
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKey, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

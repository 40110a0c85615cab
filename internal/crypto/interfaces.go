// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto holds the two cryptographic primitives of the vault:
// the passphrase-based [KeyDeriver] and the authenticated [Envelope].
//
// Neither primitive keeps key material beyond a single call. Key lifetime is
// owned by the session in package service.
package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// KeyDeriver turns a passphrase and a per-vault salt into a symmetric key.
//
// Derivation is deterministic in (passphrase, salt): two devices that share
// the salt and know the passphrase derive the same key.
type KeyDeriver interface {
	// GenerateSalt returns SaltSize bytes read from a CSPRNG.
	GenerateSalt() ([]byte, error)

	// DeriveKey derives a KeySize-byte key. It does not modify passphrase;
	// wiping it is the caller's job. Returns an error wrapping
	// [ErrKDFFailure] when the KDF cannot run.
	DeriveKey(passphrase, salt []byte) ([]byte, error)
}

// Envelope encrypts and decrypts entry values into the self-describing
// base64 form stored locally and remotely:
//
//	version (1 byte) | nonce (12 bytes) | ciphertext | tag (16 bytes)
type Envelope interface {
	// Encrypt seals plain under key with a fresh random nonce and returns
	// the base64 envelope. Returns an error wrapping [ErrRandomSource] if
	// no nonce can be drawn.
	Encrypt(plain, key []byte) (string, error)

	// Decrypt opens a base64 envelope. Returns an error wrapping one of
	// [ErrMalformed], [ErrUnsupportedVersion] or [ErrAuthFailure]; no
	// plaintext is ever returned together with an error.
	Decrypt(envelope string, key []byte) ([]byte, error)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the lifecycle contract of the command-line host.
type Client interface {
	// Run executes the command named by args[0] and returns when it is done.
	Run(ctx context.Context, args []string) error
}

// SecretReader reads a secret without echoing it.
type SecretReader interface {
	ReadSecret(prompt string) ([]byte, error)
}

// SaltStore gives access to the vault salt. store.LocalStore satisfies it.
type SaltStore interface {
	LoadOrCreateSalt(ctx context.Context) ([]byte, error)
	ImportSalt(ctx context.Context, salt []byte) error
}

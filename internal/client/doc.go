// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the openlockr command-line host of the vault
// engine.
//
// It reads the passphrase from the terminal or the OPENLOCKR_PASSPHRASE
// environment variable, unlocks the vault and runs one command: put, get,
// list, push, sync, salt or salt-import.
package client

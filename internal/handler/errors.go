// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

var (
	// errNoHandlersAreCreated is returned by NewHandlers when the server
	// configuration has no HTTP address, so no transport can be served.
	errNoHandlersAreCreated = errors.New("no handlers are created")

	// errNoTokenSignKey is returned by NewHandlers when no key is configured
	// to verify device tokens with.
	errNoTokenSignKey = errors.New("token sign key is not configured")
)

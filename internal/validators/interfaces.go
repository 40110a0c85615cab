// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks entry documents before the remote store
// persists them.
//
// A [Validator] is injected into the entry service and may be scoped to
// named fields, so a lookup by id validates the id alone.
package validators

import "context"

// Validator validates a value, optionally restricted to the named fields.
type Validator interface {
	Validate(context.Context, any, ...string) error
}

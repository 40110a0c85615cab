// Package utils provides general-purpose helpers used across the
// application: typed context keys, HMAC hashing, JSON response writing,
// the resty-based HTTP client, device JWTs and id generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
func (c contextKey) String() string {
	return string(c)
}

// DeviceIDCtxKey is the key under which the auth middleware stores the
// authenticated device id.
var DeviceIDCtxKey = contextKey("deviceID")

// GetDeviceIDFromContext retrieves the device id stored by the auth
// middleware. ok is false when the value is missing, empty or of an
// unexpected type.
func GetDeviceIDFromContext(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDCtxKey).(string)
	return deviceID, ok && deviceID != ""
}

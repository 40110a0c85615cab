package client

import "errors"

var (
	// ErrUnknownCommand is returned for a command name the client does not
	// know.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is returned when a command gets the wrong arguments.
	ErrUsage = errors.New("usage")
	// ErrEmptySecret is returned when the passphrase or the value to store is
	// empty.
	ErrEmptySecret = errors.New("empty secret")
)

package server

import "context"

// Server defines the lifecycle contract of the transport server.
type Server interface {
	// RunServer serves requests until SIGINT, SIGTERM or SIGQUIT arrives and
	// then shuts down gracefully.
	RunServer()

	// Run serves requests until ctx is done, then shuts down gracefully.
	Run(ctx context.Context) error

	// Shutdown stops accepting connections and waits for in-flight requests
	// until ctx is done.
	Shutdown(ctx context.Context) error
}

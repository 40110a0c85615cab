// Package workers runs the background jobs of the vault client.
//
// Each job implements [Worker]; [Workers] starts and stops a set of them
// together.
package workers

import "context"

// Worker is a background job with an explicit lifecycle.
//
// Start launches the job and returns immediately. The job runs until ctx is
// cancelled or Stop is called. Stop blocks until the job has fully exited and
// is safe to call on a job that is not running.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// Pusher re-uploads every local entry. service.Vault satisfies it.
type Pusher interface {
	PushAll(ctx context.Context) error
}

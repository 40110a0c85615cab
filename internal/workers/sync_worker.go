// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/openlockr/internal/logger"
)

// SyncWorker periodically re-uploads every local entry, so that entries
// whose upload failed earlier eventually reach the remote store.
type SyncWorker struct {
	pusher   Pusher
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncWorker creates a worker that calls pusher.PushAll every interval.
// A non-positive interval disables the worker: Start does nothing.
func NewSyncWorker(pusher Pusher, interval time.Duration, log *logger.Logger) *SyncWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncWorker{pusher: pusher, interval: interval, logger: log}
}

// Start implements [Worker]. It stops a previous run first.
func (w *SyncWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Debug().Str("func", "*SyncWorker.Start").Msg("periodic sync disabled")
		return
	}

	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				w.push(jobCtx)
			}
		}
	}()
}

func (w *SyncWorker) push(ctx context.Context) {
	if err := w.pusher.PushAll(ctx); err != nil {
		w.logger.Warn().Err(err).Str("func", "*SyncWorker.push").Msg("periodic push failed")
		return
	}
	w.logger.Debug().Str("func", "*SyncWorker.push").Msg("periodic push finished")
}

// Stop implements [Worker].
func (w *SyncWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

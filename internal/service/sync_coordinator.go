// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/openlockr/internal/adapter"
	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/store"
	"github.com/MKhiriev/openlockr/models"
)

// completion delivers the result of one accepted operation exactly once.
// Cancelling ctx settles it with [ErrCancelled] right away; the result of
// the operation itself is then dropped.
type completion[T any] struct {
	ctx     context.Context
	fn      func(T, error)
	settled atomic.Bool
	stop    func() bool
}

func newCompletion[T any](ctx context.Context, fn func(T, error)) *completion[T] {
	c := &completion[T]{ctx: ctx, fn: fn}
	c.stop = context.AfterFunc(ctx, func() {
		var zero T
		c.settle(zero, ErrCancelled)
	})
	return c
}

func (c *completion[T]) resolve(v T, err error) {
	c.stop()
	c.settle(v, err)
}

func (c *completion[T]) settle(v T, err error) {
	if !c.settled.CompareAndSwap(false, true) {
		return
	}
	if c.fn != nil {
		c.fn(v, err)
	}
}

func (c *completion[T]) done() bool {
	return c.settled.Load()
}

func errCallback(fn func(error)) func(struct{}, error) {
	if fn == nil {
		return nil
	}
	return func(_ struct{}, err error) { fn(err) }
}

type opKind int

const (
	opSave opKind = iota
	opLoad
	opPush
)

// laneOp is one accepted operation waiting in, or running on, an id lane.
type laneOp struct {
	kind opKind
	ctx  context.Context

	plain  string
	local  *completion[struct{}]
	remote *completion[struct{}]

	// loads holds every waiter of a coalesced load; guarded by the
	// coordinator mutex until done is set.
	loads []*completion[string]
	done  bool
}

func (op *laneOp) fail(err error) {
	if op.local != nil {
		op.local.resolve(struct{}{}, err)
	}
	if op.remote != nil {
		op.remote.resolve(struct{}{}, err)
	}
	for _, w := range op.loads {
		w.resolve("", err)
	}
}

type uploadJob struct {
	ctx     context.Context
	entry   models.Entry
	waiters []*completion[struct{}]
}

// lane serializes the operations of one entry id.
type lane struct {
	id      string
	ops     []*laneOp
	current *laneOp
	running bool

	uploading bool
	queued    *uploadJob
}

// joinableLoad returns the load a newly accepted load may share, if no save
// or push was accepted after it.
func (l *lane) joinableLoad() *laneOp {
	if n := len(l.ops); n > 0 {
		if tail := l.ops[n-1]; tail.kind == opLoad {
			return tail
		}
		return nil
	}
	if l.current != nil && l.current.kind == opLoad && !l.current.done {
		return l.current
	}
	return nil
}

// SyncCoordinator runs saves, loads and pushes against the local and remote
// stores.
//
// Every id has a lane: a FIFO of accepted operations drained by one
// goroutine, so local-phase completions for an id are delivered in
// acceptance order. Uploads run on a separate goroutine per id with a single
// queued slot; a save accepted while an upload is in flight replaces the
// queued payload. The coordinator mutex is never held across network or
// crypto calls.
type SyncCoordinator struct {
	keys     Keyring
	envelope crypto.Envelope
	local    store.LocalStore
	remote   adapter.RemoteClient
	now      func() time.Time

	logger *logger.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

// NewSyncCoordinator creates a coordinator. keys gates every operation that
// touches plaintext.
func NewSyncCoordinator(keys Keyring, envelope crypto.Envelope, local store.LocalStore, remote adapter.RemoteClient, log *logger.Logger) *SyncCoordinator {
	return &SyncCoordinator{
		keys:     keys,
		envelope: envelope,
		local:    local,
		remote:   remote,
		now:      time.Now,
		logger:   log,
		lanes:    make(map[string]*lane),
	}
}

// Save accepts a save of plain under id. onLocal and onRemote may be nil.
func (c *SyncCoordinator) Save(ctx context.Context, id, plain string, onLocal, onRemote func(error)) {
	op := &laneOp{
		kind:   opSave,
		ctx:    ctx,
		plain:  plain,
		local:  newCompletion(ctx, errCallback(onLocal)),
		remote: newCompletion(ctx, errCallback(onRemote)),
	}
	c.accept(id, op)
}

// Load accepts a load of id. Loads accepted back to back share one
// execution and one result.
func (c *SyncCoordinator) Load(ctx context.Context, id string, onDone func(string, error)) {
	op := &laneOp{
		kind:  opLoad,
		ctx:   ctx,
		loads: []*completion[string]{newCompletion(ctx, onDone)},
	}
	c.accept(id, op)
}

// Push accepts a re-upload of the entry currently stored under id. onRemote
// is called once that upload settles; an id with no local entry settles
// with nil.
func (c *SyncCoordinator) Push(ctx context.Context, id string, onRemote func(error)) {
	op := &laneOp{
		kind:   opPush,
		ctx:    ctx,
		remote: newCompletion(ctx, errCallback(onRemote)),
	}
	c.accept(id, op)
}

func (c *SyncCoordinator) accept(id string, op *laneOp) {
	if !models.ValidateEntryID(id) {
		go op.fail(ErrInvalidID)
		return
	}
	if err := c.enqueue(id, op); err != nil {
		go op.fail(err)
	}
}

func (c *SyncCoordinator) enqueue(id string, op *laneOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrEngineClosed
	}

	l, ok := c.lanes[id]
	if !ok {
		l = &lane{id: id}
		c.lanes[id] = l
	}

	if op.kind == opLoad {
		if target := l.joinableLoad(); target != nil {
			target.loads = append(target.loads, op.loads...)
			return nil
		}
	}

	l.ops = append(l.ops, op)
	if !l.running {
		l.running = true
		c.wg.Add(1)
		go c.runLane(l)
	}
	return nil
}

func (c *SyncCoordinator) runLane(l *lane) {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		if len(l.ops) == 0 {
			l.running = false
			c.releaseLane(l)
			c.mu.Unlock()
			return
		}
		op := l.ops[0]
		l.ops[0] = nil
		l.ops = l.ops[1:]
		l.current = op
		c.mu.Unlock()

		switch op.kind {
		case opSave:
			c.runSave(l, op)
		case opLoad:
			c.runLoad(l, op)
		case opPush:
			c.runPush(l, op)
		}
	}
}

// releaseLane drops an idle lane. c.mu must be held.
func (c *SyncCoordinator) releaseLane(l *lane) {
	if l.running || l.uploading || len(l.ops) > 0 {
		return
	}
	if c.lanes[l.id] == l {
		delete(c.lanes, l.id)
	}
}

// finish marks op as no longer running and returns its load waiters.
func (c *SyncCoordinator) finish(l *lane, op *laneOp) []*completion[string] {
	c.mu.Lock()
	defer c.mu.Unlock()

	op.done = true
	if l.current == op {
		l.current = nil
	}
	return op.loads
}

func (c *SyncCoordinator) runSave(l *lane, op *laneOp) {
	log := c.logger.ForEntry(l.id)
	c.finish(l, op)

	if op.ctx.Err() != nil {
		op.fail(ErrCancelled)
		return
	}

	cipher, err := c.encrypt(op.plain)
	op.plain = ""
	if err != nil {
		log.Err(err).Str("func", "*SyncCoordinator.runSave").Msg("failed to encrypt entry")
		op.fail(err)
		return
	}

	entry, err := c.local.Put(context.WithoutCancel(op.ctx), models.Entry{
		ID:        l.id,
		Cipher:    cipher,
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		log.Err(err).Str("func", "*SyncCoordinator.runSave").Msg("failed to store entry locally")
		op.fail(fmt.Errorf("%w: %w", ErrLocalIO, err))
		return
	}

	log.Debug().Str("func", "*SyncCoordinator.runSave").
		Int64("timestamp", entry.Timestamp).
		Msg("entry stored locally")
	op.local.resolve(struct{}{}, nil)

	c.scheduleUpload(l, op.ctx, entry, op.remote)
}

func (c *SyncCoordinator) runLoad(l *lane, op *laneOp) {
	if c.abandon(l, op) {
		return
	}

	plain, err := c.load(op.ctx, l.id)
	for _, w := range c.finish(l, op) {
		w.resolve(plain, err)
	}
}

// abandon finishes a load whose waiters have all been cancelled before it
// started.
func (c *SyncCoordinator) abandon(l *lane, op *laneOp) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, w := range op.loads {
		if !w.done() {
			return false
		}
	}
	op.done = true
	l.current = nil
	return true
}

func (c *SyncCoordinator) load(ctx context.Context, id string) (string, error) {
	log := c.logger.ForEntry(id)

	if err := c.keys.WithKey(func([]byte) error { return nil }); err != nil {
		return "", err
	}

	storeCtx := context.WithoutCancel(ctx)
	entry, ok, err := c.local.Get(storeCtx, id)
	if err != nil {
		log.Err(err).Str("func", "*SyncCoordinator.load").Msg("failed to read local entry")
		return "", fmt.Errorf("%w: %w", ErrLocalIO, err)
	}

	if !ok {
		// no local entry means no save ever ran for id, so no upload can be
		// in flight on this lane while the download runs
		entry, err = c.fetch(ctx, id)
		if err != nil {
			return "", err
		}
	}

	return c.decrypt(entry.Cipher)
}

// fetch downloads id and stores the server copy locally with the server
// timestamp.
func (c *SyncCoordinator) fetch(ctx context.Context, id string) (models.Entry, error) {
	log := c.logger.ForEntry(id)

	remote, err := c.remote.Download(context.WithoutCancel(ctx), id)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			log.Debug().Str("func", "*SyncCoordinator.fetch").Msg("entry not found remotely")
			return models.Entry{}, fmt.Errorf("%w: %w", ErrEntryNotFound, err)
		}
		log.Err(err).Str("func", "*SyncCoordinator.fetch").Msg("failed to download entry")
		return models.Entry{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	if remote.ID != id {
		log.Error().Str("func", "*SyncCoordinator.fetch").
			Str("remote_id", remote.ID).
			Msg("remote returned a different entry")
		return models.Entry{}, fmt.Errorf("%w: remote returned entry %q", ErrRemoteUnavailable, remote.ID)
	}

	stored, err := c.local.Put(context.WithoutCancel(ctx), remote)
	if err != nil {
		log.Err(err).Str("func", "*SyncCoordinator.fetch").Msg("failed to store downloaded entry")
		return models.Entry{}, fmt.Errorf("%w: %w", ErrLocalIO, err)
	}

	log.Debug().Str("func", "*SyncCoordinator.fetch").
		Int64("timestamp", stored.Timestamp).
		Msg("downloaded entry stored locally")
	return stored, nil
}

func (c *SyncCoordinator) runPush(l *lane, op *laneOp) {
	c.finish(l, op)

	if op.ctx.Err() != nil {
		op.fail(ErrCancelled)
		return
	}

	entry, ok, err := c.local.Get(context.WithoutCancel(op.ctx), l.id)
	if err != nil {
		op.fail(fmt.Errorf("%w: %w", ErrLocalIO, err))
		return
	}
	if !ok {
		op.remote.resolve(struct{}{}, nil)
		return
	}

	c.scheduleUpload(l, op.ctx, entry, op.remote)
}

// scheduleUpload starts an upload of entry, or parks it in the lane's queued
// slot when an upload is already in flight. A parked entry replaces the one
// parked before it and inherits its waiters.
func (c *SyncCoordinator) scheduleUpload(l *lane, ctx context.Context, entry models.Entry, waiter *completion[struct{}]) {
	c.mu.Lock()
	if l.uploading {
		if l.queued == nil {
			l.queued = &uploadJob{}
		}
		l.queued.ctx = ctx
		l.queued.entry = entry
		l.queued.waiters = append(l.queued.waiters, waiter)
		c.mu.Unlock()
		return
	}

	l.uploading = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.runUploads(l, &uploadJob{ctx: ctx, entry: entry, waiters: []*completion[struct{}]{waiter}})
}

func (c *SyncCoordinator) runUploads(l *lane, job *uploadJob) {
	defer c.wg.Done()
	log := c.logger.ForEntry(l.id)

	for job != nil {
		err := c.remote.Upload(context.WithoutCancel(job.ctx), job.entry)
		if err != nil {
			log.Err(err).Str("func", "*SyncCoordinator.runUploads").Msg("upload failed")
			err = fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		} else {
			log.Debug().Str("func", "*SyncCoordinator.runUploads").
				Int64("timestamp", job.entry.Timestamp).
				Int("waiters", len(job.waiters)).
				Msg("entry uploaded")
		}

		for _, w := range job.waiters {
			w.resolve(struct{}{}, err)
		}

		c.mu.Lock()
		job, l.queued = l.queued, nil
		if job == nil {
			l.uploading = false
			c.releaseLane(l)
		}
		c.mu.Unlock()
	}
}

func (c *SyncCoordinator) encrypt(plain string) (string, error) {
	var cipher string
	err := c.keys.WithKey(func(key []byte) error {
		buf := []byte(plain)
		defer crypto.Zero(buf)

		var err error
		cipher, err = c.envelope.Encrypt(buf, key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCrypto, err)
		}
		return nil
	})
	return cipher, err
}

// decrypt opens cipher under the session key. Envelope errors are returned
// unchanged.
func (c *SyncCoordinator) decrypt(cipher string) (string, error) {
	var plain string
	err := c.keys.WithKey(func(key []byte) error {
		buf, err := c.envelope.Decrypt(cipher, key)
		if err != nil {
			return err
		}
		plain = string(buf)
		crypto.Zero(buf)
		return nil
	})
	return plain, err
}

// Close stops accepting operations and waits until every accepted one has
// settled or ctx is done.
func (c *SyncCoordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/openlockr/internal/adapter"
	"github.com/MKhiriev/openlockr/internal/crypto"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/mock"
	"github.com/MKhiriev/openlockr/internal/store"
	"github.com/MKhiriev/openlockr/models"
)

const waitTimeout = 5 * time.Second

var testKDFParams = crypto.KDFParams{Time: 1, Memory: 64, Threads: 1}

// ── Helpers ──────────────────────────────────────────────────────────────────

// memoryRemote is an in-memory remote document store. When block is set,
// every network call announces itself on started and then waits for block
// to be closed.
type memoryRemote struct {
	mu          sync.Mutex
	docs        map[string]models.Entry
	uploads     []models.Entry
	downloads   int
	failUploads error

	block   chan struct{}
	started chan string
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{docs: make(map[string]models.Entry)}
}

func (r *memoryRemote) blockCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.block = make(chan struct{})
	r.started = make(chan string, 16)
}

func (r *memoryRemote) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.block)
	r.block = nil
}

func (r *memoryRemote) wait(call string) {
	r.mu.Lock()
	block, started := r.block, r.started
	r.mu.Unlock()

	if started != nil {
		started <- call
	}
	if block != nil {
		<-block
	}
}

func (r *memoryRemote) Upload(_ context.Context, entry models.Entry) error {
	r.wait("upload:" + entry.ID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, entry)
	if r.failUploads != nil {
		return r.failUploads
	}
	r.docs[entry.ID] = entry
	return nil
}

func (r *memoryRemote) Download(_ context.Context, id string) (models.Entry, error) {
	r.wait("download:" + id)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloads++
	doc, ok := r.docs[id]
	if !ok {
		return models.Entry{}, fmt.Errorf("%w: %s", adapter.ErrNotFound, id)
	}
	return doc, nil
}

func (r *memoryRemote) uploadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uploads)
}

func (r *memoryRemote) downloadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.downloads
}

func newTestStore(t *testing.T, dir string) store.LocalStore {
	t.Helper()
	s, err := store.NewLocalStore(context.Background(), dir, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T, local store.LocalStore, remote adapter.RemoteClient) *Engine {
	t.Helper()
	e := NewEngine(local, remote, logger.Nop(), WithKeyDeriver(crypto.NewKeyDeriverWithParams(testKDFParams)))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = e.Close(ctx)
	})
	return e
}

func initEngine(t *testing.T, e *Engine, passphrase string) {
	t.Helper()
	require.NoError(t, e.Init(context.Background(), []byte(passphrase)))
}

func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for completion")
	}
	var zero T
	return zero
}

func saveAsync(ctx context.Context, v Vault, id, plain string) (<-chan error, <-chan error) {
	local, remote := make(chan error, 1), make(chan error, 1)
	v.Save(ctx, id, plain, func(err error) { local <- err }, func(err error) { remote <- err })
	return local, remote
}

type loadResult struct {
	plain string
	err   error
}

func loadAsync(ctx context.Context, v Vault, id string) <-chan loadResult {
	done := make(chan loadResult, 1)
	v.Load(ctx, id, func(plain string, err error) { done <- loadResult{plain, err} })
	return done
}

func saveAndWait(t *testing.T, v Vault, id, plain string) (error, error) {
	t.Helper()
	local, remote := saveAsync(context.Background(), v, id, plain)
	return await(t, local), await(t, remote)
}

func loadAndWait(t *testing.T, v Vault, id string) (string, error) {
	t.Helper()
	res := await(t, loadAsync(context.Background(), v, id))
	return res.plain, res.err
}

// flipBase64Char changes one character in the middle of a base64 string.
func flipBase64Char(s string) string {
	b := []byte(s)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

// ── Scenarios ────────────────────────────────────────────────────────────────

func TestEngine_RoundTripLocalOnly(t *testing.T) {
	remote := newMemoryRemote()
	e := newTestEngine(t, newTestStore(t, t.TempDir()), remote)
	initEngine(t, e, "correct horse battery staple")

	localErr, remoteErr := saveAndWait(t, e, "email", "hunter2")
	require.NoError(t, localErr)
	require.NoError(t, remoteErr)

	plain, err := loadAndWait(t, e, "email")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)
	assert.Equal(t, 0, remote.downloadCount())
}

func TestEngine_CrossDeviceRecovery(t *testing.T) {
	remote := newMemoryRemote()
	ctx := context.Background()

	storeA := newTestStore(t, t.TempDir())
	deviceA := newTestEngine(t, storeA, remote)
	initEngine(t, deviceA, "pw")

	localErr, remoteErr := saveAndWait(t, deviceA, "wifi", "s3cret")
	require.NoError(t, localErr)
	require.NoError(t, remoteErr)

	salt, err := storeA.LoadOrCreateSalt(ctx)
	require.NoError(t, err)

	storeB := newTestStore(t, t.TempDir())
	require.NoError(t, storeB.ImportSalt(ctx, salt))
	deviceB := newTestEngine(t, storeB, remote)
	initEngine(t, deviceB, "pw")

	plain, err := loadAndWait(t, deviceB, "wifi")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)
	assert.Equal(t, 1, remote.downloadCount())

	stored, ok, err := storeB.Get(ctx, "wifi")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, remote.docs["wifi"], stored, "downloaded entry keeps the server timestamp")

	// second load is served locally
	plain, err = loadAndWait(t, deviceB, "wifi")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)
	assert.Equal(t, 1, remote.downloadCount())
}

func TestEngine_WrongPassphraseAfterCleanup(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw1")

	localErr, _ := saveAndWait(t, e, "x", "v")
	require.NoError(t, localErr)

	require.NoError(t, e.Cleanup())
	initEngine(t, e, "pw2")

	_, err := loadAndWait(t, e, "x")
	assert.ErrorIs(t, err, ErrAuthFailure)
	assert.Equal(t, CodeAuthFailure, e.Code(err))
}

func TestEngine_TamperedLocalBlob(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockRemoteClient(ctrl)
	remote.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	ctx := context.Background()
	local := newTestStore(t, t.TempDir())
	e := newTestEngine(t, local, remote)
	initEngine(t, e, "pw")

	localErr, remoteErr := saveAndWait(t, e, "y", "v")
	require.NoError(t, localErr)
	require.NoError(t, remoteErr)

	entry, ok, err := local.Get(ctx, "y")
	require.NoError(t, err)
	require.True(t, ok)
	entry.Cipher = flipBase64Char(entry.Cipher)
	tampered, err := local.Put(ctx, entry)
	require.NoError(t, err)

	// no Download expectation: any remote fetch fails the test
	_, err = loadAndWait(t, e, "y")
	assert.ErrorIs(t, err, ErrAuthFailure)

	after, ok, err := local.Get(ctx, "y")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tampered, after)
}

func TestEngine_RemoteMiss(t *testing.T) {
	tests := []struct {
		name     string
		remote   error
		wantErr  error
		wantCode int
	}{
		{
			name:     "not found",
			remote:   fmt.Errorf("%w: status 404", adapter.ErrNotFound),
			wantErr:  ErrEntryNotFound,
			wantCode: CodeEntryNotFound,
		},
		{
			name:     "server error",
			remote:   fmt.Errorf("%w: status 500", adapter.ErrInternalServerError),
			wantErr:  ErrRemoteUnavailable,
			wantCode: CodeRemoteUnavailable,
		},
		{
			name:     "transport error",
			remote:   fmt.Errorf("%w: connection refused", adapter.ErrRequest),
			wantErr:  ErrRemoteUnavailable,
			wantCode: CodeRemoteUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			remote := mock.NewMockRemoteClient(ctrl)
			remote.EXPECT().Download(gomock.Any(), "never-existed").Return(models.Entry{}, tt.remote)

			local := newTestStore(t, t.TempDir())
			e := newTestEngine(t, local, remote)
			initEngine(t, e, "pw")

			_, err := loadAndWait(t, e, "never-existed")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, Code(err))

			ids, err := local.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, ids, "remote failure must not change local state")
		})
	}
}

func TestEngine_OfflineSave(t *testing.T) {
	remote := newMemoryRemote()
	remote.failUploads = fmt.Errorf("%w: dial tcp: connection refused", adapter.ErrRequest)
	e := newTestEngine(t, newTestStore(t, t.TempDir()), remote)
	initEngine(t, e, "pw")

	localErr, remoteErr := saveAndWait(t, e, "z", "v")
	require.NoError(t, localErr)
	assert.ErrorIs(t, remoteErr, ErrRemoteUnavailable)
	assert.Equal(t, CodeRemoteUnavailable, Code(remoteErr))

	plain, err := loadAndWait(t, e, "z")
	require.NoError(t, err)
	assert.Equal(t, "v", plain)
}

// ── Properties ───────────────────────────────────────────────────────────────

func TestEngine_LockUnlockRoundTrip(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw")

	for _, plain := range []string{"", "a", "hunter2", strings.Repeat("x", 4096), "пароль 🔑"} {
		cipher, err := e.Lock(plain)
		require.NoError(t, err)

		got, err := e.Unlock(cipher)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEngine_SessionsWithSameSaltAgree(t *testing.T) {
	ctx := context.Background()
	storeA := newTestStore(t, t.TempDir())
	a := newTestEngine(t, storeA, newMemoryRemote())
	initEngine(t, a, "shared")

	salt, err := storeA.LoadOrCreateSalt(ctx)
	require.NoError(t, err)
	storeB := newTestStore(t, t.TempDir())
	require.NoError(t, storeB.ImportSalt(ctx, salt))
	b := newTestEngine(t, storeB, newMemoryRemote())
	initEngine(t, b, "shared")

	cipher, err := a.Lock("moved between devices")
	require.NoError(t, err)

	plain, err := b.Unlock(cipher)
	require.NoError(t, err)
	assert.Equal(t, "moved between devices", plain)
}

func TestEngine_UnlockTampered(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw")

	cipher, err := e.Lock("secret")
	require.NoError(t, err)

	_, err = e.Unlock(flipBase64Char(cipher))
	assert.ErrorIs(t, err, ErrAuthFailure)

	_, err = e.Unlock("AQID")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, CodeMalformed, Code(err))

	_, err = e.Unlock("not base64!")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEngine_LoadAfterSaveIsLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockRemoteClient(ctrl)
	remote.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	e := newTestEngine(t, newTestStore(t, t.TempDir()), remote)
	initEngine(t, e, "pw")

	local, remoteDone := saveAsync(context.Background(), e, "note", "remember the milk")
	require.NoError(t, await(t, local))

	plain, err := loadAndWait(t, e, "note")
	require.NoError(t, err)
	assert.Equal(t, "remember the milk", plain)

	require.NoError(t, await(t, remoteDone))
}

func TestEngine_ConcurrentSavesUploadNewest(t *testing.T) {
	remote := newMemoryRemote()
	local := newTestStore(t, t.TempDir())
	e := newTestEngine(t, local, remote)
	initEngine(t, e, "pw")

	local1, remote1 := saveAsync(context.Background(), e, "id", "p1")
	local2, remote2 := saveAsync(context.Background(), e, "id", "p2")

	require.NoError(t, await(t, local1))
	require.NoError(t, await(t, local2))
	require.NoError(t, await(t, remote1))
	require.NoError(t, await(t, remote2))

	stored, ok, err := local.Get(context.Background(), "id")
	require.NoError(t, err)
	require.True(t, ok)
	plain, err := e.Unlock(stored.Cipher)
	require.NoError(t, err)
	assert.Equal(t, "p2", plain)

	remote.mu.Lock()
	uploads := append([]models.Entry(nil), remote.uploads...)
	remote.mu.Unlock()

	require.NotEmpty(t, uploads)
	assert.LessOrEqual(t, len(uploads), 2)
	last, err := e.Unlock(uploads[len(uploads)-1].Cipher)
	require.NoError(t, err)
	assert.Equal(t, "p2", last)
}

func TestEngine_SaveDuringUploadReplacesQueuedPayload(t *testing.T) {
	remote := newMemoryRemote()
	remote.blockCalls()
	e := newTestEngine(t, newTestStore(t, t.TempDir()), remote)
	initEngine(t, e, "pw")
	ctx := context.Background()

	local1, remote1 := saveAsync(ctx, e, "id", "p1")
	require.NoError(t, await(t, local1))
	assert.Equal(t, "upload:id", await(t, remote.started))

	local2, remote2 := saveAsync(ctx, e, "id", "p2")
	require.NoError(t, await(t, local2))
	local3, remote3 := saveAsync(ctx, e, "id", "p3")
	require.NoError(t, await(t, local3))

	remote.release()

	require.NoError(t, await(t, remote1))
	require.NoError(t, await(t, remote2))
	require.NoError(t, await(t, remote3))

	remote.mu.Lock()
	uploads := append([]models.Entry(nil), remote.uploads...)
	remote.mu.Unlock()

	require.Len(t, uploads, 2)
	first, err := e.Unlock(uploads[0].Cipher)
	require.NoError(t, err)
	assert.Equal(t, "p1", first)
	last, err := e.Unlock(uploads[1].Cipher)
	require.NoError(t, err)
	assert.Equal(t, "p3", last)
}

func TestEngine_SupersededSaveGetsNewerUploadOutcome(t *testing.T) {
	remote := newMemoryRemote()
	remote.blockCalls()
	e := newTestEngine(t, newTestStore(t, t.TempDir()), remote)
	initEngine(t, e, "pw")
	ctx := context.Background()

	local1, remote1 := saveAsync(ctx, e, "id", "p1")
	require.NoError(t, await(t, local1))
	<-remote.started

	local2, remote2 := saveAsync(ctx, e, "id", "p2")
	require.NoError(t, await(t, local2))
	local3, remote3 := saveAsync(ctx, e, "id", "p3")
	require.NoError(t, await(t, local3))

	remote.mu.Lock()
	remote.failUploads = adapter.ErrServiceUnavailable
	remote.mu.Unlock()
	remote.release()

	// all three uploads fail; p2 shares the outcome of the upload carrying p3
	assert.ErrorIs(t, await(t, remote1), ErrRemoteUnavailable)
	err2, err3 := await(t, remote2), await(t, remote3)
	assert.ErrorIs(t, err2, ErrRemoteUnavailable)
	assert.Equal(t, err3, err2)
	assert.Equal(t, 2, remote.uploadCount())
}

func TestEngine_CleanupZeroesKey(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw")

	cipher, err := e.Lock("v")
	require.NoError(t, err)

	buf := e.currentSession().key
	require.NotNil(t, buf)
	require.Len(t, buf.Bytes(), crypto.KeySize)
	require.False(t, crypto.IsZero(buf.Bytes()))

	// Destroy unmaps the key pages, so the old slice must not be read again.
	require.NoError(t, e.Cleanup())
	assert.False(t, buf.IsAlive())
	assert.Empty(t, buf.Bytes())
	assert.Nil(t, e.currentSession().key)

	_, err = e.Lock("v")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.Unlock(cipher)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = e.List(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	localErr, remoteErr := saveAndWait(t, e, "id", "v")
	assert.ErrorIs(t, localErr, ErrNotInitialized)
	assert.ErrorIs(t, remoteErr, ErrNotInitialized)
	assert.Equal(t, CodeNotInitialized, Code(localErr))

	_, err = loadAndWait(t, e, "id")
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, e.Cleanup(), "cleanup is idempotent")
}

// ── Init ─────────────────────────────────────────────────────────────────────

func TestEngine_InitBeforeUse(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())

	_, err := e.Lock("v")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = loadAndWait(t, e, "id")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEngine_InitIdempotent(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())

	pass := []byte("pw")
	require.NoError(t, e.Init(context.Background(), pass))
	assert.True(t, crypto.IsZero(pass), "passphrase is zeroed")

	cipher, err := e.Lock("v")
	require.NoError(t, err)

	require.NoError(t, e.Init(context.Background(), []byte("pw")))

	err = e.Init(context.Background(), []byte("other"))
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, CodeAlreadyInitialized, Code(err))

	plain, err := e.Unlock(cipher)
	require.NoError(t, err, "failed re-init leaves the session usable")
	assert.Equal(t, "v", plain)
}

func TestEngine_InitKDFFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	deriver := mock.NewMockKeyDeriver(ctrl)
	deriver.EXPECT().DeriveKey(gomock.Any(), gomock.Any()).Return(nil, crypto.ErrKDFFailure)

	e := NewEngine(newTestStore(t, t.TempDir()), newMemoryRemote(), logger.Nop(), WithKeyDeriver(deriver))

	pass := []byte("pw")
	err := e.Init(context.Background(), pass)
	assert.ErrorIs(t, err, ErrKDFFailure)
	assert.Equal(t, CodeKDFFailure, Code(err))
	assert.True(t, crypto.IsZero(pass))

	_, err = e.Lock("v")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEngine_InitCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	deriver := mock.NewMockKeyDeriver(ctrl)

	started, release := make(chan struct{}), make(chan struct{})
	deriver.EXPECT().DeriveKey(gomock.Any(), gomock.Any()).DoAndReturn(func(_, _ []byte) ([]byte, error) {
		close(started)
		<-release
		return make([]byte, crypto.KeySize), nil
	})
	defer close(release)

	e := NewEngine(newTestStore(t, t.TempDir()), newMemoryRemote(), logger.Nop(), WithKeyDeriver(deriver))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Init(ctx, []byte("pw")) }()

	await(t, started)
	cancel()
	err := await(t, errCh)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, CodeCancelled, Code(err))
}

func TestEngine_InitSaltFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockLocalStore(ctrl)
	local.EXPECT().LoadOrCreateSalt(gomock.Any()).Return(nil, errors.New("permission denied"))

	e := NewEngine(local, newMemoryRemote(), logger.Nop(), WithKeyDeriver(crypto.NewKeyDeriverWithParams(testKDFParams)))

	err := e.Init(context.Background(), []byte("pw"))
	assert.ErrorIs(t, err, ErrLocalIO)
	assert.Equal(t, CodeLocalIO, Code(err))
}

// ── Save / Load edge cases ───────────────────────────────────────────────────

func TestEngine_InvalidID(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw")

	for _, id := range []string{"", strings.Repeat("a", models.MaxEntryIDLength+1), "tab\tid", "nul\x00id", "é"} {
		localErr, remoteErr := saveAndWait(t, e, id, "v")
		assert.ErrorIs(t, localErr, ErrInvalidID, "id %q", id)
		assert.ErrorIs(t, remoteErr, ErrInvalidID, "id %q", id)

		_, err := loadAndWait(t, e, id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
		assert.Equal(t, CodeInvalidID, Code(err))
	}
}

func TestEngine_LocalWriteFailureSkipsUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock.NewMockLocalStore(ctrl)
	local.EXPECT().LoadOrCreateSalt(gomock.Any()).Return(make([]byte, crypto.SaltSize), nil)
	local.EXPECT().Put(gomock.Any(), gomock.Any()).Return(models.Entry{}, errors.New("disk full"))
	remote := mock.NewMockRemoteClient(ctrl)

	e := NewEngine(local, remote, logger.Nop(), WithKeyDeriver(crypto.NewKeyDeriverWithParams(testKDFParams)))
	initEngine(t, e, "pw")

	localErr, remoteErr := saveAndWait(t, e, "id", "v")
	assert.ErrorIs(t, localErr, ErrLocalIO)
	assert.Equal(t, CodeLocalIO, Code(localErr))
	assert.ErrorIs(t, remoteErr, ErrLocalIO)
}

func TestEngine_EncryptFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := mock.NewMockEnvelope(ctrl)
	env.EXPECT().Encrypt(gomock.Any(), gomock.Any()).Return("", crypto.ErrRandomSource)

	e := NewEngine(newTestStore(t, t.TempDir()), newMemoryRemote(), logger.Nop(),
		WithKeyDeriver(crypto.NewKeyDeriverWithParams(testKDFParams)),
		WithEnvelope(env))
	initEngine(t, e, "pw")

	localErr, remoteErr := saveAndWait(t, e, "id", "v")
	assert.ErrorIs(t, localErr, ErrCrypto)
	assert.Equal(t, CodeCrypto, Code(localErr))
	assert.ErrorIs(t, remoteErr, ErrCrypto)
}

func TestEngine_CompletionOrderPerID(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw")
	ctx := context.Background()

	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
		wg.Done()
	}

	wg.Add(4)
	e.Save(ctx, "id", "a", func(err error) { assert.NoError(t, err); record("save:a") }, nil)
	e.Load(ctx, "id", func(plain string, err error) { assert.NoError(t, err); record("load:" + plain) })
	e.Save(ctx, "id", "b", func(err error) { assert.NoError(t, err); record("save:b") }, nil)
	e.Load(ctx, "id", func(plain string, err error) { assert.NoError(t, err); record("load:" + plain) })

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	await(t, done)

	assert.Equal(t, []string{"save:a", "load:a", "save:b", "load:b"}, order)
}

func TestEngine_ConcurrentLoadsShareDownload(t *testing.T) {
	remote := newMemoryRemote()
	e := newTestEngine(t, newTestStore(t, t.TempDir()), remote)
	initEngine(t, e, "pw")

	cipher, err := e.Lock("shared")
	require.NoError(t, err)
	remote.docs["id"] = models.Entry{ID: "id", Cipher: cipher, Timestamp: 42}

	remote.blockCalls()
	ctx := context.Background()
	first := loadAsync(ctx, e, "id")
	assert.Equal(t, "download:id", await(t, remote.started))
	second := loadAsync(ctx, e, "id")
	remote.release()

	r1, r2 := await(t, first), await(t, second)
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, "shared", r1.plain)
	assert.Equal(t, "shared", r2.plain)
	assert.Equal(t, 1, remote.downloadCount())
}

func TestEngine_CancelledLoadKeepsDownloadedEntry(t *testing.T) {
	remote := newMemoryRemote()
	local := newTestStore(t, t.TempDir())
	e := newTestEngine(t, local, remote)
	initEngine(t, e, "pw")

	cipher, err := e.Lock("late")
	require.NoError(t, err)
	remote.docs["id"] = models.Entry{ID: "id", Cipher: cipher, Timestamp: 42}

	remote.blockCalls()
	ctx, cancel := context.WithCancel(context.Background())
	done := loadAsync(ctx, e, "id")
	<-remote.started

	cancel()
	res := await(t, done)
	assert.ErrorIs(t, res.err, ErrCancelled)
	assert.Equal(t, CodeCancelled, Code(res.err))

	remote.release()
	closeCtx, closeCancel := context.WithTimeout(context.Background(), waitTimeout)
	defer closeCancel()
	require.NoError(t, e.coord.Close(closeCtx))

	stored, ok, err := local.Get(context.Background(), "id")
	require.NoError(t, err)
	require.True(t, ok, "the download completed and was stored")
	assert.Equal(t, int64(42), stored.Timestamp)
}

func TestEngine_SaveWithCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockRemoteClient(ctrl)
	local := newTestStore(t, t.TempDir())
	e := newTestEngine(t, local, remote)
	initEngine(t, e, "pw")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	localDone, remoteDone := saveAsync(ctx, e, "id", "v")
	assert.ErrorIs(t, await(t, localDone), ErrCancelled)
	assert.ErrorIs(t, await(t, remoteDone), ErrCancelled)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), waitTimeout)
	defer closeCancel()
	require.NoError(t, e.coord.Close(closeCtx))

	_, ok, err := local.Get(context.Background(), "id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_NilCallbacks(t *testing.T) {
	remote := newMemoryRemote()
	local := newTestStore(t, t.TempDir())
	e := newTestEngine(t, local, remote)
	initEngine(t, e, "pw")

	e.Save(context.Background(), "id", "v", nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, e.Close(ctx))
	assert.Equal(t, 1, remote.uploadCount())
}

func TestEngine_ClosedEngineRejects(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw")

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, e.coord.Close(ctx))

	localErr, remoteErr := saveAndWait(t, e, "id", "v")
	assert.ErrorIs(t, localErr, ErrEngineClosed)
	assert.ErrorIs(t, remoteErr, ErrEngineClosed)
	assert.ErrorIs(t, localErr, ErrNotInitialized)
	assert.Equal(t, CodeNotInitialized, Code(localErr))
}

// ── List / PushAll ───────────────────────────────────────────────────────────

func TestEngine_List(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	initEngine(t, e, "pw")

	for _, id := range []string{"wifi", "email", "bank"} {
		localErr, _ := saveAndWait(t, e, id, "v")
		require.NoError(t, localErr)
	}

	ids, err := e.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bank", "email", "wifi"}, ids)
}

func TestEngine_PushAll(t *testing.T) {
	remote := newMemoryRemote()
	remote.failUploads = adapter.ErrServiceUnavailable
	e := newTestEngine(t, newTestStore(t, t.TempDir()), remote)
	initEngine(t, e, "pw")

	for _, id := range []string{"a", "b", "c"} {
		localErr, remoteErr := saveAndWait(t, e, id, "v-"+id)
		require.NoError(t, localErr)
		require.ErrorIs(t, remoteErr, ErrRemoteUnavailable)
	}

	err := e.PushAll(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Equal(t, CodeRemoteUnavailable, Code(err))

	remote.mu.Lock()
	remote.failUploads = nil
	remote.mu.Unlock()

	require.NoError(t, e.PushAll(context.Background()))

	remote.mu.Lock()
	defer remote.mu.Unlock()
	require.Len(t, remote.docs, 3)
	for _, id := range []string{"a", "b", "c"} {
		plain, err := e.Unlock(remote.docs[id].Cipher)
		require.NoError(t, err)
		assert.Equal(t, "v-"+id, plain)
	}
}

func TestEngine_PushAllNotInitialized(t *testing.T) {
	e := newTestEngine(t, newTestStore(t, t.TempDir()), newMemoryRemote())
	assert.ErrorIs(t, e.PushAll(context.Background()), ErrNotInitialized)
}

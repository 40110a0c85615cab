// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/openlockr/internal/config"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/utils"
	"github.com/MKhiriev/openlockr/models"
)

const testSignKey = "test-sign-key"

func newTestRemoteClient(t *testing.T, serverURL string) RemoteClient {
	t.Helper()
	c, err := NewHTTPRemoteClient(
		config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: 2 * time.Second},
		config.ClientApp{DeviceID: "laptop", TokenSignKey: testSignKey, TokenIssuer: "openlockr"},
		logger.Nop(),
	)
	require.NoError(t, err)
	return c
}

func requireDeviceToken(t *testing.T, r *http.Request) {
	t.Helper()
	raw, err := utils.ParseBearerToken(r.Header.Get("Authorization"))
	require.NoError(t, err)
	token, err := utils.ValidateDeviceToken(raw, testSignKey, "openlockr")
	require.NoError(t, err)
	assert.Equal(t, "laptop", token.DeviceID)
}

// ── NewHTTPRemoteClient ───────────────────────────────────────────────────────

func TestNewHTTPRemoteClient_InvalidAddress(t *testing.T) {
	for _, addr := range []string{"", "   ", "http://"} {
		_, err := NewHTTPRemoteClient(config.ClientAdapter{HTTPAddress: addr}, config.ClientApp{}, logger.Nop())
		assert.ErrorIs(t, err, ErrInvalidAddress, addr)
	}
}

// ── Upload ────────────────────────────────────────────────────────────────────

func TestUpload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/entries/wifi", r.URL.Path)
		requireDeviceToken(t, r)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, utils.VerifyHashHex(body, testSignKey, r.Header.Get(utils.HashSHA256Header)))

		var doc models.EntryDocument
		require.NoError(t, json.Unmarshal(body, &doc))
		assert.Equal(t, models.EntryDocument{Cipher: "Y2lwaGVy", Timestamp: 42}, doc)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newTestRemoteClient(t, srv.URL).Upload(context.Background(), models.Entry{ID: "wifi", Cipher: "Y2lwaGVy", Timestamp: 42})
	assert.NoError(t, err)
}

func TestUpload_EscapesID(t *testing.T) {
	const id = "work/mail?x=1#frag 100%"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/entries/"+id, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newTestRemoteClient(t, srv.URL).Upload(context.Background(), models.Entry{ID: id, Cipher: "c"}))
}

func TestUpload_ErrorStatuses(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusInternalServerError, ErrInternalServerError},
		{http.StatusBadGateway, ErrBadGateway},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newTestRemoteClient(t, srv.URL).Upload(context.Background(), models.Entry{ID: "x", Cipher: "c"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpload_UnmappedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	err := newTestRemoteClient(t, srv.URL).Upload(context.Background(), models.Entry{ID: "x", Cipher: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 418")
}

func TestUpload_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newTestRemoteClient(t, url).Upload(context.Background(), models.Entry{ID: "x", Cipher: "c"})
	assert.ErrorIs(t, err, ErrRequest)
}

func TestUpload_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestRemoteClient(t, srv.URL).Upload(ctx, models.Entry{ID: "x", Cipher: "c"})
	assert.ErrorIs(t, err, ErrRequest)
}

// ── Download ──────────────────────────────────────────────────────────────────

func TestDownload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/entries/wifi", r.URL.Path)
		requireDeviceToken(t, r)

		_, _ = utils.WriteJSON(w, models.Entry{ID: "wifi", Cipher: "Y2lwaGVy", Timestamp: 7}, http.StatusOK)
	}))
	defer srv.Close()

	got, err := newTestRemoteClient(t, srv.URL).Download(context.Background(), "wifi")
	require.NoError(t, err)
	assert.Equal(t, models.Entry{ID: "wifi", Cipher: "Y2lwaGVy", Timestamp: 7}, got)
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "entry was not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestRemoteClient(t, srv.URL).Download(context.Background(), "never-existed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload_InvalidResponses(t *testing.T) {
	tests := map[string]string{
		"not json":     "<html>",
		"different id": `{"id":"other","cipher":"c","timestamp":1}`,
		"no cipher":    `{"id":"wifi","timestamp":1}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.Copy(w, strings.NewReader(body))
			}))
			defer srv.Close()

			_, err := newTestRemoteClient(t, srv.URL).Download(context.Background(), "wifi")
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

// ── Token caching ─────────────────────────────────────────────────────────────

func TestRemoteClient_ReusesToken(t *testing.T) {
	var (
		first string
		calls atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			first = r.Header.Get("Authorization")
		} else {
			assert.Equal(t, first, r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestRemoteClient(t, srv.URL)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Upload(context.Background(), models.Entry{ID: "x", Cipher: "c"}))
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestRemoteClient_MissingSignKey(t *testing.T) {
	c, err := NewHTTPRemoteClient(config.ClientAdapter{HTTPAddress: "localhost:1"}, config.ClientApp{DeviceID: "d"}, logger.Nop())
	require.NoError(t, err)

	err = c.Upload(context.Background(), models.Entry{ID: "x"})
	assert.ErrorIs(t, err, utils.ErrInvalidTokenParams)
}

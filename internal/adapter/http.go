// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/openlockr/internal/config"
	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/utils"
	"github.com/MKhiriev/openlockr/models"
)

const (
	entryPath = "/api/entries/{id}"

	tokenTTL = time.Hour
	// tokenRefreshSkew renews the device token this long before it expires.
	tokenRefreshSkew = time.Minute
)

type httpRemoteClient struct {
	client *utils.HTTPClient

	deviceID     string
	tokenSignKey string
	tokenIssuer  string

	mu    sync.Mutex
	token models.Token

	logger *logger.Logger
}

// NewHTTPRemoteClient constructs the HTTP/REST implementation of
// [RemoteClient]. Every request carries a device JWT signed with
// appCfg.TokenSignKey and an HMAC of its body under the same key.
func NewHTTPRemoteClient(adapterCfg config.ClientAdapter, appCfg config.ClientApp, log *logger.Logger) (RemoteClient, error) {
	if err := validateAddress(adapterCfg.HTTPAddress); err != nil {
		return nil, err
	}

	return &httpRemoteClient{
		client:       utils.NewHTTPClient(adapterCfg.HTTPAddress, adapterCfg.RequestTimeout),
		deviceID:     appCfg.DeviceID,
		tokenSignKey: appCfg.TokenSignKey,
		tokenIssuer:  appCfg.TokenIssuer,
		logger:       log,
	}, nil
}

func validateAddress(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: address must include a host", ErrInvalidAddress)
	}
	return nil
}

// Upload implements [RemoteClient] as PUT /api/entries/{id}.
func (h *httpRemoteClient) Upload(ctx context.Context, entry models.Entry) error {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(models.EntryDocument{Cipher: entry.Cipher, Timestamp: entry.Timestamp})
	if err != nil {
		return fmt.Errorf("encode upload body: %w", err)
	}

	req, err := h.authedRequest(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetPathParam("id", entry.ID).
		SetHeader("Content-Type", "application/json").
		SetHeader(utils.HashSHA256Header, utils.HashHex(body, h.tokenSignKey)).
		SetBody(body).
		Put(entryPath)
	if err != nil {
		log.Err(err).Str("func", "httpRemoteClient.Upload").Str("entry_id", entry.ID).Msg("upload request failed")
		return fmt.Errorf("%w: upload: %w", ErrRequest, err)
	}
	if err = mapHTTPError(resp); err != nil {
		log.Err(err).Str("func", "httpRemoteClient.Upload").Str("entry_id", entry.ID).Msg("upload rejected")
		return err
	}

	log.Debug().Str("func", "httpRemoteClient.Upload").Str("entry_id", entry.ID).Msg("entry uploaded")
	return nil
}

// Download implements [RemoteClient] as GET /api/entries/{id}.
func (h *httpRemoteClient) Download(ctx context.Context, id string) (models.Entry, error) {
	log := logger.FromContext(ctx)

	req, err := h.authedRequest(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	resp, err := req.
		SetPathParam("id", id).
		Get(entryPath)
	if err != nil {
		log.Err(err).Str("func", "httpRemoteClient.Download").Str("entry_id", id).Msg("download request failed")
		return models.Entry{}, fmt.Errorf("%w: download: %w", ErrRequest, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Entry{}, err
	}

	var entry models.Entry
	if err = json.Unmarshal(resp.Body(), &entry); err != nil {
		return models.Entry{}, fmt.Errorf("%w: decode download response: %w", ErrInvalidResponse, err)
	}
	if entry.ID != id || entry.Cipher == "" {
		return models.Entry{}, fmt.Errorf("%w: response does not describe entry %q", ErrInvalidResponse, id)
	}

	return entry, nil
}

func (h *httpRemoteClient) authedRequest(ctx context.Context) (*resty.Request, error) {
	token, err := h.currentToken()
	if err != nil {
		return nil, err
	}
	return h.client.R().
		SetContext(ctx).
		SetAuthToken(token.SignedString), nil
}

// currentToken returns the cached device token, minting a new one when it
// is missing or about to expire.
func (h *httpRemoteClient) currentToken() (models.Token, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.token.SignedString != "" && h.token.ExpiresAt != nil &&
		time.Until(h.token.ExpiresAt.Time) > tokenRefreshSkew {
		return h.token, nil
	}

	token, err := utils.GenerateDeviceToken(h.tokenIssuer, h.deviceID, tokenTTL, h.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("generate device token: %w", err)
	}
	h.token = token
	return token, nil
}

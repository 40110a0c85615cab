// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/utils"
	"github.com/MKhiriev/openlockr/models"
)

// maxBodySize caps upload bodies; entries are a few kilobytes at most.
const maxBodySize = 64 << 10

// putEntry handles PUT /api/entries/{id}: it upserts the document and
// answers 204 No Content.
func (h *Handler) putEntry(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := entryIDFromRequest(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.putEntry").Msg("bad entry path")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	var doc models.EntryDocument
	if err = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&doc); err != nil {
		log.Err(err).Str("func", "*Handler.putEntry").Msg("Invalid JSON was passed")
		http.Error(w, ErrInvalidBody.Error(), http.StatusBadRequest)
		return
	}

	entry := models.Entry{ID: id, Cipher: doc.Cipher, Timestamp: doc.Timestamp}
	if err = h.services.EntryService.Put(r.Context(), entry); err != nil {
		log.Err(err).Str("func", "*Handler.putEntry").Str("entry_id", id).Msg("error saving entry")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	log.Debug().Str("func", "*Handler.putEntry").Str("entry_id", id).Msg("entry saved")
	w.WriteHeader(http.StatusNoContent)
}

// getEntry handles GET /api/entries/{id}.
func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := entryIDFromRequest(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getEntry").Msg("bad entry path")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	entry, err := h.services.EntryService.Get(r.Context(), id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getEntry").Str("entry_id", id).Msg("error getting entry")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err = utils.WriteJSON(w, entry, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.getEntry").Msg("error writing response")
	}
}

// entryIDFromRequest recovers the id from the escaped request path. Router
// parameters cannot be used here: ids may contain '/' and '%', which only
// survive in their escaped form.
func entryIDFromRequest(r *http.Request) (string, error) {
	escaped, ok := strings.CutPrefix(r.URL.EscapedPath(), entriesPrefix)
	if !ok || escaped == "" {
		return "", ErrInvalidEntryPath
	}

	id, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEntryPath, err)
	}
	return id, nil
}

package http

import (
	"bytes"
	"io"
	"net/http"

	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/utils"
)

// verifyBodyHash checks the HashSHA256 header of an upload against the HMAC
// of its body under the token sign key. Requests without the header pass
// through unchanged.
func (h *Handler) verifyBodyHash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		sum := r.Header.Get(utils.HashSHA256Header)
		if sum == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			log.Err(err).Str("func", "*Handler.verifyBodyHash").Msg("failed to read request body")
			http.Error(w, ErrInvalidBody.Error(), http.StatusBadRequest)
			return
		}

		if !utils.VerifyHashHex(body, h.tokenSignKey, sum) {
			log.Error().Str("func", "*Handler.verifyBodyHash").
				Str("hash", sum).
				Msg("body hash mismatch")
			http.Error(w, ErrHashMismatch.Error(), http.StatusBadRequest)
			return
		}

		log.Debug().Str("func", "*Handler.verifyBodyHash").Msg("body hash verified")
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

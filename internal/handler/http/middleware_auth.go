package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/openlockr/internal/logger"
	"github.com/MKhiriev/openlockr/internal/utils"
)

// auth is an HTTP middleware that enforces device JWT authentication.
//
// The bearer token must be an HS256 token signed with the server's token
// sign key, carrying an expiry, the configured issuer (when one is set) and
// the device id as its subject. On success the device id is stored in the
// request context under [utils.DeviceIDCtxKey]. Every failure is answered
// with 401 Unauthorized.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			http.Error(w, ErrEmptyAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			log.Err(err).Send()
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		token, err := utils.ValidateDeviceToken(tokenString, h.tokenSignKey, h.tokenIssuer)
		if err != nil {
			log.Err(err).Msg("error occurred during parsing token")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), utils.DeviceIDCtxKey, token.DeviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

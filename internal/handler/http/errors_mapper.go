package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/openlockr/internal/service"
	"github.com/MKhiriev/openlockr/internal/store"
	"github.com/MKhiriev/openlockr/internal/validators"
)

// errorStatuses is checked in order, so wrapped errors carrying several
// sentinels map to the first match.
var errorStatuses = []struct {
	err    error
	status int
}{
	{ErrInvalidEntryPath, http.StatusBadRequest},
	{ErrInvalidBody, http.StatusBadRequest},
	{ErrHashMismatch, http.StatusBadRequest},

	{validators.ErrInvalidEntryID, http.StatusBadRequest},
	{validators.ErrEmptyCipher, http.StatusBadRequest},
	{validators.ErrMalformedCipher, http.StatusBadRequest},
	{validators.ErrInvalidTimestamp, http.StatusBadRequest},
	{service.ErrValidationNoDeviceID, http.StatusUnauthorized},

	{store.ErrEntryNotFound, http.StatusNotFound},
	{store.ErrRetryable, http.StatusServiceUnavailable},
	{store.ErrEntryNotSaved, http.StatusInternalServerError},

	{store.ErrBuildingSQLQuery, http.StatusInternalServerError},
	{store.ErrExecutingQuery, http.StatusInternalServerError},
	{store.ErrExecutingStatement, http.StatusInternalServerError},
	{store.ErrScanningRow, http.StatusInternalServerError},
	{store.ErrScanningRows, http.StatusInternalServerError},
}

func statusFromError(err error) int {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			return es.status
		}
	}
	return http.StatusInternalServerError
}

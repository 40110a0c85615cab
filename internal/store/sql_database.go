package store

import (
	"database/sql"

	"github.com/MKhiriev/openlockr/internal/logger"
)

// DB wraps a *sql.DB with the logger and the error classifier of the
// backend it was opened against.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// ErrorClassificator decides whether a failed database operation may be
// retried by the caller.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

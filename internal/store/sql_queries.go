package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/openlockr/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const upsertEntrySuffix = `ON CONFLICT (id) DO UPDATE SET
	cipher     = EXCLUDED.cipher,
	timestamp  = EXCLUDED.timestamp,
	updated_by = EXCLUDED.updated_by,
	updated_at = EXCLUDED.updated_at`

// buildUpsertEntryQuery builds the merge-upsert of one document.
func buildUpsertEntryQuery(entry models.StoredEntry) (string, []any, error) {
	query, args, err := psql.
		Insert(models.EntriesCollection).
		Columns("id", "cipher", "timestamp", "updated_by", "updated_at").
		Values(entry.ID, entry.Cipher, entry.Timestamp, entry.UpdatedBy, sq.Expr("NOW()")).
		Suffix(upsertEntrySuffix).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildGetEntryQuery builds the lookup of one document by id.
func buildGetEntryQuery(id string) (string, []any, error) {
	query, args, err := psql.
		Select("id", "cipher", "timestamp", "updated_by", "updated_at").
		From(models.EntriesCollection).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

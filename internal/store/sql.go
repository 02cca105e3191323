package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	getSnapshotQuery = "SELECT payload FROM snapshots WHERE snapshot_key = ?"
	setSnapshotQuery = `
		INSERT INTO snapshots (snapshot_key, payload, updated_at)
		VALUES (:snapshot_key, :payload, CURRENT_TIMESTAMP)
		ON CONFLICT (snapshot_key) DO UPDATE SET
		payload = excluded.payload,
		updated_at = CURRENT_TIMESTAMP
	`
)

type snapshotRow struct {
	Key  string `db:"snapshot_key"`
	Blob string `db:"payload"`
}

// SQLStore keeps snapshots in the snapshots table. The same queries run on
// sqlite3 and postgres, placeholders are rebound for the driver in use.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob, s.db.Rebind(getSnapshotQuery), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading snapshot %s: %w", key, err)
	}
	return blob, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, blob string) error {
	_, err := s.db.NamedExecContext(ctx, setSnapshotQuery, snapshotRow{Key: key, Blob: blob})
	if err != nil {
		return fmt.Errorf("writing snapshot %s: %w", key, err)
	}
	return nil
}

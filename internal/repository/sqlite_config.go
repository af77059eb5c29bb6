package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tguerin/timekeep/internal/db"
)

// SQLiteConfigRepo implements ConfigRepo over the configuration key/value table.
type SQLiteConfigRepo struct {
	db db.DBTX
}

// NewSQLiteConfigRepo creates a new SQLiteConfigRepo.
func NewSQLiteConfigRepo(conn db.DBTX) *SQLiteConfigRepo {
	return &SQLiteConfigRepo{db: conn}
}

func (r *SQLiteConfigRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM configuration WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("configuration %q: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("reading configuration %q: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteConfigRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO configuration (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("writing configuration %q: %w", key, err)
	}
	return nil
}

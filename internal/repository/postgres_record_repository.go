package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

// PostgresRecordRepository keeps record documents in a key/value table.
type PostgresRecordRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresRecordRepository constructs the repository.
func NewPostgresRecordRepository(db *sqlx.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db, now: time.Now}
}

// EnsureSchema creates the backing table when missing.
func (r *PostgresRecordRepository) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS board_records (
	key TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure board_records schema: %w", err)
	}
	return nil
}

// Read returns the raw document stored under key.
func (r *PostgresRecordRepository) Read(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT payload FROM board_records WHERE key = $1`
	var payload []byte
	if err := r.db.GetContext(ctx, &payload, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("read record %s: %w", key, err)
	}
	return payload, nil
}

// Write replaces the document stored under key.
func (r *PostgresRecordRepository) Write(ctx context.Context, key string, payload []byte) error {
	const query = `INSERT INTO board_records (key, payload, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(payload), r.now().UTC()); err != nil {
		return fmt.Errorf("write record %s: %w", key, err)
	}
	return nil
}

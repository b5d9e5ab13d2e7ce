package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripdesk/tripdesk/internal/platform/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workspace_slices (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Querier is the subset of *pgxpool.Pool the store uses.
type Querier interface {
	db.TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

// PostgresStore keeps slices in the workspace_slices table.
type PostgresStore struct {
	pool Querier
}

// NewPostgresStore constructs a PostgreSQL backed store.
func NewPostgresStore(pool Querier) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the slice table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("store/postgres: ensure schema: %w", err)
		}
		return nil
	})
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM workspace_slices WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store/postgres: load %s: %w", key, err)
	}
	return payload, true, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, key string, value []byte) error {
	const query = `
INSERT INTO workspace_slices (key, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("store/postgres: save %s: %w", key, err)
	}
	return nil
}

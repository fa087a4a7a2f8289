package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

const (
	selectKeySQL = `SELECT status_code, body, order_id FROM idempotency_keys WHERE key = $1`

	// ON CONFLICT DO NOTHING keeps the first stored response authoritative
	// when two retries race on the same key.
	insertKeySQL = `
		INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`
)

// Store persists idempotency keys in the idempotency_keys table so order
// submission replays survive a process restart.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	var stored ports.StoredResponse
	err := s.pool.QueryRow(ctx, selectKeySQL, key).Scan(
		&stored.StatusCode,
		&stored.Body,
		&stored.OrderID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}
	return &stored, nil
}

func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	_, err := s.pool.Exec(ctx, insertKeySQL, key, response.StatusCode, response.Body, response.OrderID)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}
	return nil
}

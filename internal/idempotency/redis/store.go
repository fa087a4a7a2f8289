package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

const keyPrefix = "boutique:idem:"

// defaultTTL keeps replayed responses around long enough for client
// retries without growing the keyspace forever.
const defaultTTL = 24 * time.Hour

// Store keeps idempotency responses in Redis. It is the production
// store when the API runs with several replicas sharing no database
// round-trips for replay lookups.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: defaultTTL}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}

	var resp ports.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotency response: %w", err)
	}
	return &resp, nil
}

func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode idempotency response: %w", err)
	}

	// SetNX keeps the first stored response, matching the postgres
	// store's ON CONFLICT DO NOTHING.
	if err := s.client.SetNX(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

package ports

import "context"

// StoredResponse contains the response data replayed for a reused key.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	OrderID    string
}

// IdempotencyStore lets clients retry order submission safely: a reused
// Idempotency-Key replays the first response instead of creating a
// second order. Get returns nil when the key is unknown.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}

package memory

import (
	"context"
	"sync"

	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// Store keeps idempotency responses in memory. It backs tests and local
// runs without Redis or a database.
type Store struct {
	mu        sync.Mutex
	responses map[string]ports.StoredResponse
}

func NewStore() *Store {
	return &Store{responses: make(map[string]ports.StoredResponse)}
}

func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.responses[key]
	if !ok {
		return nil, nil
	}
	return &stored, nil
}

// Save keeps the first response written for a key, mirroring the
// conflict handling of the persistent stores.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[key]; !ok {
		s.responses[key] = response
	}
	return nil
}

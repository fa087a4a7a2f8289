package invoices

import (
	"context"
	"fmt"
	"sync"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

// MemoryStore is an in-memory invoice store for tests.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, orderID string, pdf []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := fmt.Sprintf("memory://factures/%s.pdf", orderID)
	s.docs[url] = append([]byte(nil), pdf...)
	return url, nil
}

func (s *MemoryStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[url]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, url)
	return nil
}

// Get returns a stored document, for test assertions.
func (s *MemoryStore) Get(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[url]
	return doc, ok
}

// Len reports how many documents are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

package invoices

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes invoices to a directory on disk. It exists for local
// development and tests; production uses the Cloud Storage store.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore ensures the target directory exists. baseURL is the
// public prefix under which the directory is served.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create invoice directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Upload(_ context.Context, orderID string, pdf []byte) (string, error) {
	name := fmt.Sprintf("%s.pdf", orderID)
	if err := os.WriteFile(filepath.Join(s.dir, name), pdf, 0o644); err != nil {
		return "", fmt.Errorf("write invoice file: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.baseURL, name), nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return fmt.Errorf("invalid invoice url %q", url)
	}
	// filepath.Base guards against traversal through a crafted URL.
	name := filepath.Base(url[idx+1:])
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("remove invoice file: %w", err)
	}
	return nil
}

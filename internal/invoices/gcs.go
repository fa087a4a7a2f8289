package invoices

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

const objectPrefix = "factures"

// GCSStore keeps invoice documents in a Cloud Storage bucket and
// references them by their public object URL.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Upload(ctx context.Context, orderID string, pdf []byte) (string, error) {
	object := fmt.Sprintf("%s/%s.pdf", objectPrefix, orderID)

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := w.Write(pdf); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write invoice object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize invoice object %s: %w", object, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object), nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	object, err := s.objectFromURL(url)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("delete invoice object %s: %w", object, err)
	}
	return nil
}

func (s *GCSStore) objectFromURL(url string) (string, error) {
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", s.bucket)
	object := strings.TrimPrefix(url, prefix)
	if object == url || object == "" {
		return "", fmt.Errorf("invoice url %q does not belong to bucket %s", url, s.bucket)
	}
	return object, nil
}

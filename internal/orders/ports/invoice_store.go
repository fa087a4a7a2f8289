package ports

import "context"

// InvoiceStore persists invoice documents in an external object store
// and hands back a durable URL kept on the order row.
type InvoiceStore interface {
	Upload(ctx context.Context, orderID string, pdf []byte) (string, error)

	// Delete removes a previously uploaded document by its URL. Failures
	// are logged by callers, never fatal.
	Delete(ctx context.Context, url string) error
}

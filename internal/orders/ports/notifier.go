package ports

import (
	"context"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

// Notifier is the narrow interface to the external notification service.
// All calls are best-effort: callers log failures and never propagate them.
type Notifier interface {
	// OrderCreated announces a new order to the administrators and sends
	// the customer a confirmation carrying the original invoice document.
	OrderCreated(ctx context.Context, order domain.Order, invoicePDF []byte) error

	// OrderStatusChanged routes an email based on the order's new status.
	OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error
}

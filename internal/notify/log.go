package notify

import (
	"context"
	"log/slog"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

// LogNotifier logs notifications without sending them anywhere. Useful
// for local dev before wiring the mailer topic.
type LogNotifier struct{}

// NewLogNotifier returns a new log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) OrderCreated(_ context.Context, order domain.Order, invoicePDF []byte) error {
	slog.Debug("notify::order_created",
		"order_id", order.ID,
		"customer_email", order.Customer.Email,
		"invoice_bytes", len(invoicePDF),
	)
	return nil
}

func (n *LogNotifier) OrderStatusChanged(_ context.Context, order domain.Order, previous domain.OrderStatus) error {
	slog.Debug("notify::order_status_changed",
		"order_id", order.ID,
		"previous", string(previous),
		"status", string(order.Status),
	)
	return nil
}

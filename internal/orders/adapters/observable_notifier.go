package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/metrics"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
	"github.com/ndiayelabs/boutique-api/internal/telemetry"
)

// ObservableNotifier wraps a Notifier with tracing and a failure counter.
// The wrapped calls are already best-effort; observability is the only
// place failures become visible.
type ObservableNotifier struct {
	notifier ports.Notifier
	metrics  *metrics.Metrics
}

func NewObservableNotifier(notifier ports.Notifier, metrics *metrics.Metrics) *ObservableNotifier {
	return &ObservableNotifier{
		notifier: notifier,
		metrics:  metrics,
	}
}

func (n *ObservableNotifier) OrderCreated(ctx context.Context, order domain.Order, invoicePDF []byte) error {
	ctx, span := telemetry.StartSpan(ctx, "Notifier.OrderCreated")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("notification.kind", "order_created"),
	)

	start := time.Now()
	err := n.notifier.OrderCreated(ctx, order, invoicePDF)
	telemetry.AddSpanAttributes(span, attribute.Float64("duration_seconds", time.Since(start).Seconds()))

	if err != nil {
		n.metrics.RecordNotificationFailure(ctx, "order_created")
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (n *ObservableNotifier) OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "Notifier.OrderStatusChanged")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("notification.kind", "status_changed"),
		attribute.String("order.status", string(order.Status)),
		attribute.String("order.previous_status", string(previous)),
	)

	err := n.notifier.OrderStatusChanged(ctx, order, previous)
	if err != nil {
		n.metrics.RecordNotificationFailure(ctx, "status_changed")
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

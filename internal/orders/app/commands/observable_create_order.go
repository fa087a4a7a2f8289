package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/metrics"
	"github.com/ndiayelabs/boutique-api/internal/telemetry"
)

// ObservableCommandHandler wraps the create-order handler with tracing,
// logging and metrics.
type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordOrderCreationDuration(ctx, duration)
		o.metrics.RecordOrderCreated(ctx, success)
	}()

	o.logger.InfoContext(ctx, "creating order",
		"customer_email", cmd.Customer.Email,
		"line_items", len(cmd.Items),
	)

	order, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		var insufficient *domain.InsufficientStockError
		var outOfStock *domain.OutOfStockError
		switch {
		case errors.As(err, &insufficient):
			o.metrics.RecordReservationRejected(ctx, insufficient.ProductID, "insufficient_stock")
		case errors.As(err, &outOfStock):
			o.metrics.RecordReservationRejected(ctx, outOfStock.ProductID, "out_of_stock")
		}

		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"customer_email", cmd.Customer.Email,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.Int("order.line_items", len(order.Items)),
		attribute.Int64("order.total", order.Total),
		attribute.String("order.status", string(order.Status)),
	)

	o.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"total", order.Total,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal        metric.Int64Counter
	orderCreationDuration     metric.Float64Histogram
	reservationRejectedTotal  metric.Int64Counter
	statusTransitionsTotal    metric.Int64Counter
	notificationFailuresTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of order creation attempts"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.reservationRejectedTotal, err = meter.Int64Counter(
		"stock_reservation_rejected_total",
		metric.WithDescription("Reservations rejected for missing or insufficient stock"),
		metric.WithUnit("{reservation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stock_reservation_rejected_total counter: %w", err)
	}

	m.statusTransitionsTotal, err = meter.Int64Counter(
		"order_status_transitions_total",
		metric.WithDescription("Applied order status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_transitions_total counter: %w", err)
	}

	m.notificationFailuresTotal, err = meter.Int64Counter(
		"order_notification_failures_total",
		metric.WithDescription("Best-effort notifications that returned an error"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_notification_failures_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordReservationRejected(ctx context.Context, productID, reason string) {
	m.reservationRejectedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("product_id", productID),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to string) {
	m.statusTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) RecordNotificationFailure(ctx context.Context, kind string) {
	m.notificationFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

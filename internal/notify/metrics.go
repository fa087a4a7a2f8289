package notify

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics tracks event publication latency per event type.
type Metrics struct {
	publishLatency metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.publishLatency, err = meter.Float64Histogram(
		"notification_publish_latency_seconds",
		metric.WithDescription("Latency of publishing order notification events"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create notification_publish_latency histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordPublish(ctx context.Context, eventType string, durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.publishLatency.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", status),
	))
}

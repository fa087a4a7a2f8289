package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records repository query latency, labelled by operation and
// outcome so slow and failing operations show up separately.
type Metrics struct {
	queryDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	queryDuration, err := meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration histogram: %w", err)
	}

	return &Metrics{queryDuration: queryDuration}, nil
}

func (m *Metrics) RecordQuery(ctx context.Context, operation string, durationSeconds float64, queryErr error) {
	status := "ok"
	if queryErr != nil {
		status = "error"
	}
	m.queryDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

package database

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	if metrics.queryDuration == nil {
		t.Error("queryDuration is nil")
	}
}

func TestRecordQuery(t *testing.T) {
	t.Run("records duration per operation and status", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

		metrics, err := NewMetrics(meter)
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		ctx := context.Background()
		metrics.RecordQuery(ctx, "update_order_status", 0.1, nil)
		metrics.RecordQuery(ctx, "list_user_orders", 0.05, errors.New("timeout"))

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			t.Fatalf("failed to collect metrics: %v", err)
		}

		found := false
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name != "db_query_duration_seconds" {
					continue
				}
				found = true
				histogram, ok := m.Data.(metricdata.Histogram[float64])
				if !ok {
					t.Fatal("expected Histogram[float64] data type")
				}
				// One point per distinct operation/status pair.
				if len(histogram.DataPoints) != 2 {
					t.Errorf("expected 2 data points, got %d", len(histogram.DataPoints))
				}
			}
		}
		if !found {
			t.Error("db_query_duration_seconds metric not found")
		}
	})
}

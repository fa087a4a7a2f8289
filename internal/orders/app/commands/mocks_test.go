package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/metrics"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

type mockRepository struct {
	createOrderFn  func(ctx context.Context, order domain.Order) (*domain.Order, error)
	getByIDFn      func(ctx context.Context, id string) (*domain.Order, error)
	updateStatusFn func(ctx context.Context, id string, update ports.StatusUpdate) error
	deleteFn       func(ctx context.Context, id string) error
}

func (m *mockRepository) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, order)
	}
	return &order, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepository) ListByUser(ctx context.Context, userID string, page ports.Page) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, update ports.StatusUpdate) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, update)
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockInventory struct {
	addStockFn func(ctx context.Context, productID string, quantity int) error
}

func (m *mockInventory) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (m *mockInventory) AddStock(ctx context.Context, productID string, quantity int) error {
	if m.addStockFn != nil {
		return m.addStockFn(ctx, productID, quantity)
	}
	return nil
}

type mockNotifier struct {
	orderCreatedFn  func(ctx context.Context, order domain.Order, invoicePDF []byte) error
	statusChangedFn func(ctx context.Context, order domain.Order, previous domain.OrderStatus) error
}

func (m *mockNotifier) OrderCreated(ctx context.Context, order domain.Order, invoicePDF []byte) error {
	if m.orderCreatedFn != nil {
		return m.orderCreatedFn(ctx, order, invoicePDF)
	}
	return nil
}

func (m *mockNotifier) OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	if m.statusChangedFn != nil {
		return m.statusChangedFn(ctx, order, previous)
	}
	return nil
}

type mockInvoiceStore struct {
	uploadFn func(ctx context.Context, orderID string, pdf []byte) (string, error)
	deleteFn func(ctx context.Context, url string) error
}

func (m *mockInvoiceStore) Upload(ctx context.Context, orderID string, pdf []byte) (string, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, orderID, pdf)
	}
	return "memory://factures/" + orderID + ".pdf", nil
}

func (m *mockInvoiceStore) Delete(ctx context.Context, url string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, url)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	m, err := metrics.NewMetrics(sdkmetric.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m
}

func int64Ptr(v int64) *int64 {
	return &v
}

package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ndiayelabs/boutique-api/internal/database"
	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
	"github.com/ndiayelabs/boutique-api/internal/telemetry"
)

// ObservableRepository decorates an OrderRepository with spans and
// per-operation query metrics.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.Int("order.line_items", len(order.Items)),
		attribute.String("operation", "create_order"),
	)

	start := time.Now()
	created, err := r.repo.CreateOrder(ctx, order)
	r.metrics.RecordQuery(ctx, "create_order", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return created, nil
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)
	r.metrics.RecordQuery(ctx, "get_order_by_id", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (r *ObservableRepository) ListByUser(ctx context.Context, userID string, page ports.Page) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.ListByUser")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("operation", "list_by_user"),
		attribute.Int("page", page.Number),
		attribute.Int("page_size", page.Size),
	)

	start := time.Now()
	orders, err := r.repo.ListByUser(ctx, userID, page)
	r.metrics.RecordQuery(ctx, "list_user_orders", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.List")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list"),
		attribute.Int("page", filter.Page.Number),
		attribute.Int("page_size", filter.Page.Size),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	orders, err := r.repo.List(ctx, filter)
	r.metrics.RecordQuery(ctx, "list_orders", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, id string, update ports.StatusUpdate) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.UpdateStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("order.new_status", string(update.Status)),
		attribute.String("operation", "update_status"),
	)

	start := time.Now()
	err := r.repo.UpdateStatus(ctx, id, update)
	r.metrics.RecordQuery(ctx, "update_order_status", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Delete")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "delete"),
	)

	start := time.Now()
	err := r.repo.Delete(ctx, id)
	r.metrics.RecordQuery(ctx, "delete_order", time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

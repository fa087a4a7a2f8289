package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/metrics"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// SetStatusCommand requests a status transition on an order. Status is
// the raw wire value so that anything outside the closed set is rejected
// here rather than deeper in the stack.
type SetStatusCommand struct {
	OrderID        string
	Status         string
	TrackingNumber *string
	Caller         domain.Caller
}

// SetStatusCommandHandler applies the order status state machine and the
// compensating restock on cancellation.
type SetStatusCommandHandler struct {
	repo      ports.OrderRepository
	inventory ports.InventoryStore
	notifier  ports.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewSetStatusCommandHandler(
	repo ports.OrderRepository,
	inventory ports.InventoryStore,
	notifier ports.Notifier,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *SetStatusCommandHandler {
	return &SetStatusCommandHandler{
		repo:      repo,
		inventory: inventory,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
	}
}

func (h *SetStatusCommandHandler) Handle(ctx context.Context, cmd SetStatusCommand) (*domain.Order, error) {
	target, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanAccess(*order, cmd.Caller) {
		return nil, domain.ErrForbidden
	}

	if err := domain.CanRequestStatus(cmd.Caller, order.Status, target); err != nil {
		return nil, err
	}

	// No-op transition: nothing to persist, nothing to email. This is also
	// what makes a second cancellation idempotent.
	if order.Status == target {
		return order, nil
	}

	previous := order.Status
	now := time.Now().UTC()

	update := ports.StatusUpdate{Status: target}
	if target == domain.StatusDelivered {
		update.DeliveredAt = &now
	}
	if cmd.Caller.Admin && cmd.TrackingNumber != nil && *cmd.TrackingNumber != "" {
		update.TrackingNumber = cmd.TrackingNumber
	}

	if err := h.repo.UpdateStatus(ctx, order.ID, update); err != nil {
		return nil, err
	}

	h.metrics.RecordStatusTransition(ctx, string(previous), string(target))

	if target == domain.StatusCancelled {
		h.restock(ctx, *order)
	}

	order.Status = target
	order.UpdatedAt = now
	if update.DeliveredAt != nil {
		order.DeliveredAt = update.DeliveredAt
	}
	if update.TrackingNumber != nil {
		order.TrackingNumber = *update.TrackingNumber
	}

	h.dispatchStatusNotification(ctx, *order, previous)

	return order, nil
}

// restock returns every line's reserved quantity to its product. Each
// increment is atomic on its own; an error on one line is logged and the
// remaining lines are still attempted, so a partial restock beats a
// silent no-op.
func (h *SetStatusCommandHandler) restock(ctx context.Context, order domain.Order) {
	for _, item := range order.Items {
		if err := h.inventory.AddStock(ctx, item.ProductID, item.Quantity); err != nil {
			h.logger.ErrorContext(ctx, "restock failed for cancelled order line",
				"order_id", order.ID,
				"product_id", item.ProductID,
				"quantity", item.Quantity,
				"error", err,
			)
		}
	}
}

func (h *SetStatusCommandHandler) dispatchStatusNotification(ctx context.Context, order domain.Order, previous domain.OrderStatus) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := h.notifier.OrderStatusChanged(notifyCtx, order, previous); err != nil {
			h.logger.ErrorContext(notifyCtx, "status change notification failed",
				"order_id", order.ID,
				"status", string(order.Status),
				"error", err,
			)
		}
	}()
}

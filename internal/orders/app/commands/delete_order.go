package commands

import (
	"context"
	"log/slog"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// DeleteOrderCommand removes a cancelled order and its line items.
type DeleteOrderCommand struct {
	OrderID string
	Caller  domain.Caller
}

type DeleteOrderCommandHandler struct {
	repo     ports.OrderRepository
	invoices ports.InvoiceStore
	logger   *slog.Logger
}

func NewDeleteOrderCommandHandler(
	repo ports.OrderRepository,
	invoices ports.InvoiceStore,
	logger *slog.Logger,
) *DeleteOrderCommandHandler {
	return &DeleteOrderCommandHandler{
		repo:     repo,
		invoices: invoices,
		logger:   logger,
	}
}

func (h *DeleteOrderCommandHandler) Handle(ctx context.Context, cmd DeleteOrderCommand) error {
	if !cmd.Caller.Admin {
		return domain.ErrForbidden
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}

	// A non-cancelled order still holds reservations and financial state.
	if order.Status != domain.StatusCancelled {
		return domain.NewValidationError("statut", "only cancelled orders can be deleted")
	}

	if err := h.repo.Delete(ctx, order.ID); err != nil {
		return err
	}

	if order.InvoiceURL != "" {
		if err := h.invoices.Delete(ctx, order.InvoiceURL); err != nil {
			h.logger.WarnContext(ctx, "failed to delete invoice for removed order",
				"order_id", order.ID,
				"invoice_url", order.InvoiceURL,
				"error", err,
			)
		}
	}

	return nil
}

package queries

import (
	"context"
	"strings"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// GetOrderQuery retrieves one order on behalf of a caller.
type GetOrderQuery struct {
	OrderID string
	Caller  domain.Caller
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" {
		return domain.NewValidationError("id", "is required")
	}
	return nil
}

// GetOrderQueryHandler loads the order and applies the access guard.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanAccess(*order, query.Caller) {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

package queries

import (
	"context"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// ListUserOrdersQuery returns the caller's own orders, paginated.
type ListUserOrdersQuery struct {
	Caller domain.Caller
	Page   ports.Page
}

// ListAllOrdersQuery is the admin back-office listing with status,
// free-text and date-range filters.
type ListAllOrdersQuery struct {
	Caller domain.Caller
	Filter ports.ListFilter
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) HandleUser(ctx context.Context, query ListUserOrdersQuery) ([]domain.Order, error) {
	if query.Caller.UserID == "" {
		return nil, domain.ErrForbidden
	}
	return h.repo.ListByUser(ctx, query.Caller.UserID, query.Page.Normalize())
}

func (h *ListOrdersQueryHandler) HandleAll(ctx context.Context, query ListAllOrdersQuery) ([]domain.Order, error) {
	if !query.Caller.Admin {
		return nil, domain.ErrForbidden
	}
	filter := query.Filter
	filter.Page = filter.Page.Normalize()
	return h.repo.List(ctx, filter)
}

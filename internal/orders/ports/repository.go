package ports

import (
	"context"
	"time"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

// OrderRepository exposes the persistence operations required by the
// application layer. CreateOrder owns the whole atomic unit of work:
// stock reservation for every line plus the order and item inserts
// either all commit or all roll back.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, page Page) ([]domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
	Delete(ctx context.Context, id string) error
}

// InventoryStore mutates per-product available stock. AddStock is a single
// atomic increment used by the compensating restock on cancellation; the
// reservation decrement lives inside OrderRepository.CreateOrder.
type InventoryStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	AddStock(ctx context.Context, productID string, quantity int) error
}

// StatusUpdate carries the fields written by a status transition.
type StatusUpdate struct {
	Status         domain.OrderStatus
	TrackingNumber *string
	DeliveredAt    *time.Time
}

// Page is 1-based pagination.
type Page struct {
	Number int
	Size   int
}

// Normalize applies the defaults used across list queries.
func (p Page) Normalize() Page {
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = 20
	}
	return p
}

// Offset converts the page to a row offset.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ListFilter narrows admin list queries by status, free text and date range.
type ListFilter struct {
	Status *domain.OrderStatus
	Search string
	From   *time.Time
	To     *time.Time
	Page   Page
}

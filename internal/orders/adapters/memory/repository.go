package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// Repository is an in-memory order repository and inventory store, useful
// for local development and tests. One mutex guards products and orders
// together so CreateOrder keeps the same all-or-nothing semantics as the
// postgres adapter.
type Repository struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	products map[string]domain.Product
}

// NewRepository constructs an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		orders:   make(map[string]domain.Order),
		products: make(map[string]domain.Product),
	}
}

// SeedProduct inserts or replaces a catalog product.
func (r *Repository) SeedProduct(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

// CreateOrder checks and decrements stock for every line, then stores the
// order. Nothing is mutated unless every line passes.
func (r *Repository) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range order.Items {
		item := &order.Items[i]
		product, ok := r.products[item.ProductID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		if product.OutOfStock {
			return nil, &domain.OutOfStockError{ProductID: product.ID, ProductName: product.Name}
		}
		if product.Stock < item.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
			}
		}
		if item.ProductName == "" {
			item.ProductName = product.Name
		}
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = int64(i + 1)
		item.OrderID = order.ID
		product := r.products[item.ProductID]
		product.Stock -= item.Quantity
		r.products[item.ProductID] = product
	}

	r.orders[order.ID] = order
	stored := cloneOrder(order)
	return &stored, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := cloneOrder(order)
	return &clone, nil
}

func (r *Repository) ListByUser(_ context.Context, userID string, page ports.Page) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if !order.IsGuest() && *order.UserID == userID {
			result = append(result, cloneOrder(order))
		}
	}
	return paginate(result, page), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(order, filter.Search) {
			continue
		}
		if filter.From != nil && order.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && order.CreatedAt.After(*filter.To) {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	return paginate(result, filter.Page), nil
}

func (r *Repository) UpdateStatus(_ context.Context, id string, update ports.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}

	order.Status = update.Status
	order.UpdatedAt = time.Now().UTC()
	if update.DeliveredAt != nil {
		order.DeliveredAt = update.DeliveredAt
	}
	if update.TrackingNumber != nil {
		order.TrackingNumber = *update.TrackingNumber
	}
	r.orders[id] = order
	return nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *Repository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := product
	return &clone, nil
}

func (r *Repository) AddStock(_ context.Context, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	product.Stock += quantity
	product.UpdatedAt = time.Now().UTC()
	r.products[productID] = product
	return nil
}

func matchesSearch(order domain.Order, search string) bool {
	needle := strings.ToLower(search)
	return order.ID == search ||
		strings.Contains(strings.ToLower(order.Customer.Name), needle) ||
		strings.Contains(strings.ToLower(order.Customer.Email), needle)
}

func paginate(orders []domain.Order, page ports.Page) []domain.Order {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	page = page.Normalize()
	start := page.Offset()
	if start >= len(orders) {
		return []domain.Order{}
	}
	end := start + page.Size
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end]
}

func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}

package app

import (
	"context"
	"log/slog"

	"github.com/ndiayelabs/boutique-api/internal/orders/adapters"
	"github.com/ndiayelabs/boutique-api/internal/orders/app/commands"
	"github.com/ndiayelabs/boutique-api/internal/orders/app/queries"
	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/metrics"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// Service bundles the order use cases exposed over HTTP.
type Service struct {
	idemStore          ports.IdempotencyStore
	createOrderHandler commands.CommandHandler
	setStatusHandler   *commands.SetStatusCommandHandler
	deleteOrderHandler *commands.DeleteOrderCommandHandler
	getOrderHandler    *queries.GetOrderQueryHandler
	listOrdersHandler  *queries.ListOrdersQueryHandler
}

// NewService wires the command and query handlers with their observability
// decorators.
func NewService(
	repo ports.OrderRepository,
	inventory ports.InventoryStore,
	invoices ports.InvoiceStore,
	notifier ports.Notifier,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	observedNotifier := adapters.NewObservableNotifier(notifier, m)

	createHandler := commands.NewCreateOrderCommandHandler(repo, invoices, observedNotifier, logger)

	return &Service{
		idemStore:          idem,
		createOrderHandler: commands.NewObservableCommandHandler(createHandler, logger, m),
		setStatusHandler:   commands.NewSetStatusCommandHandler(repo, inventory, observedNotifier, logger, m),
		deleteOrderHandler: commands.NewDeleteOrderCommandHandler(repo, invoices, logger),
		getOrderHandler:    queries.NewGetOrderQueryHandler(repo),
		listOrdersHandler:  queries.NewListOrdersQueryHandler(repo),
	}
}

// CreateOrder runs the atomic creation sequence.
func (s *Service) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (*domain.Order, error) {
	return s.createOrderHandler.Handle(ctx, cmd)
}

// SetStatus applies a status transition on behalf of a caller.
func (s *Service) SetStatus(ctx context.Context, cmd commands.SetStatusCommand) (*domain.Order, error) {
	return s.setStatusHandler.Handle(ctx, cmd)
}

// DeleteOrder removes a cancelled order.
func (s *Service) DeleteOrder(ctx context.Context, cmd commands.DeleteOrderCommand) error {
	return s.deleteOrderHandler.Handle(ctx, cmd)
}

// GetOrder retrieves an order, enforcing the access guard.
func (s *Service) GetOrder(ctx context.Context, query queries.GetOrderQuery) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, query)
}

// ListUserOrders returns the caller's orders.
func (s *Service) ListUserOrders(ctx context.Context, query queries.ListUserOrdersQuery) ([]domain.Order, error) {
	return s.listOrdersHandler.HandleUser(ctx, query)
}

// ListAllOrders returns the admin listing.
func (s *Service) ListAllOrders(ctx context.Context, query queries.ListAllOrdersQuery) ([]domain.Order, error) {
	return s.listOrdersHandler.HandleAll(ctx, query)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

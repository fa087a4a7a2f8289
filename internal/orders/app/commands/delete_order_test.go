package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndiayelabs/boutique-api/internal/orders/app/commands"
	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

func TestDeleteOrder(t *testing.T) {
	admin := domain.Caller{UserID: "admin-1", Admin: true}

	t.Run("deletes a cancelled order and its invoice", func(t *testing.T) {
		var deletedOrder, deletedInvoice string
		repo := &mockRepository{
			getByIDFn: func(ctx context.Context, id string) (*domain.Order, error) {
				order := storedOrder(domain.StatusCancelled)
				order.InvoiceURL = "memory://factures/order-1.pdf"
				return order, nil
			},
			deleteFn: func(ctx context.Context, id string) error {
				deletedOrder = id
				return nil
			},
		}
		invoices := &mockInvoiceStore{
			deleteFn: func(ctx context.Context, url string) error {
				deletedInvoice = url
				return nil
			},
		}
		handler := commands.NewDeleteOrderCommandHandler(repo, invoices, testLogger())

		err := handler.Handle(context.Background(), commands.DeleteOrderCommand{
			OrderID: "order-1",
			Caller:  admin,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if deletedOrder != "order-1" {
			t.Errorf("expected order-1 deleted, got %q", deletedOrder)
		}
		if deletedInvoice != "memory://factures/order-1.pdf" {
			t.Errorf("expected invoice deleted, got %q", deletedInvoice)
		}
	})

	t.Run("refuses non-admin callers", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFn: func(ctx context.Context, id string) (*domain.Order, error) {
				t.Error("repository should not be queried for a non-admin")
				return nil, domain.ErrNotFound
			},
		}
		handler := commands.NewDeleteOrderCommandHandler(repo, &mockInvoiceStore{}, testLogger())

		err := handler.Handle(context.Background(), commands.DeleteOrderCommand{
			OrderID: "order-1",
			Caller:  domain.Caller{UserID: "user-1"},
		})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("refuses orders that are not cancelled", func(t *testing.T) {
		for _, status := range []domain.OrderStatus{
			domain.StatusPending,
			domain.StatusConfirmed,
			domain.StatusShipped,
			domain.StatusDelivered,
		} {
			repo := &mockRepository{
				getByIDFn: func(ctx context.Context, id string) (*domain.Order, error) {
					return storedOrder(status), nil
				},
				deleteFn: func(ctx context.Context, id string) error {
					t.Errorf("order in status %s should not be deleted", status)
					return nil
				},
			}
			handler := commands.NewDeleteOrderCommandHandler(repo, &mockInvoiceStore{}, testLogger())

			err := handler.Handle(context.Background(), commands.DeleteOrderCommand{
				OrderID: "order-1",
				Caller:  admin,
			})
			if !domain.IsValidation(err) {
				t.Errorf("status %s: expected validation error, got %v", status, err)
			}
		}
	})

	t.Run("invoice removal failure does not fail the deletion", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFn: func(ctx context.Context, id string) (*domain.Order, error) {
				order := storedOrder(domain.StatusCancelled)
				order.InvoiceURL = "memory://factures/order-1.pdf"
				return order, nil
			},
		}
		invoices := &mockInvoiceStore{
			deleteFn: func(ctx context.Context, url string) error {
				return errors.New("bucket unavailable")
			},
		}
		handler := commands.NewDeleteOrderCommandHandler(repo, invoices, testLogger())

		err := handler.Handle(context.Background(), commands.DeleteOrderCommand{
			OrderID: "order-1",
			Caller:  admin,
		})
		if err != nil {
			t.Errorf("expected deletion to succeed despite invoice failure, got: %v", err)
		}
	})

	t.Run("missing order surfaces as not found", func(t *testing.T) {
		handler := commands.NewDeleteOrderCommandHandler(&mockRepository{}, &mockInvoiceStore{}, testLogger())

		err := handler.Handle(context.Background(), commands.DeleteOrderCommand{
			OrderID: "missing",
			Caller:  admin,
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

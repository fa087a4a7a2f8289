package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// notifyTimeout bounds the fire-and-forget notification dispatch so a
// slow mailer cannot pin goroutines forever.
const notifyTimeout = 15 * time.Second

// LineItemInput is one requested order line. ProductName is optional;
// when absent the snapshot is backfilled from the catalog inside the
// reservation transaction.
type LineItemInput struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
}

// CreateOrderCommand carries everything needed to create an order.
// ShippingFee and SubmittedSubtotal are pointers so that an absent field
// is distinguishable from a zero value.
type CreateOrderCommand struct {
	UserID            *string
	Customer          domain.Customer
	Delivery          domain.Delivery
	ShippingFee       *int64
	SubmittedSubtotal *int64
	Items             []LineItemInput
	InvoicePDF        []byte
}

// Validate enforces the hard preconditions of order creation.
func (c CreateOrderCommand) Validate() error {
	if len(c.InvoicePDF) == 0 {
		return domain.NewValidationError("facture", "is required")
	}
	if c.ShippingFee == nil {
		return domain.NewValidationError("frais_livraison", "is required")
	}
	if c.SubmittedSubtotal == nil {
		return domain.NewValidationError("prix_soumis", "is required")
	}
	pricing := domain.Pricing{SubmittedSubtotal: *c.SubmittedSubtotal, ShippingFee: *c.ShippingFee}
	if err := pricing.Validate(); err != nil {
		return err
	}
	if len(c.Items) == 0 {
		return domain.NewValidationError("articles", "must not be empty")
	}
	for _, item := range c.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return domain.NewValidationError("articles", "product_id is required")
		}
		if item.Quantity <= 0 {
			return domain.NewValidationError("articles", "quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return domain.NewValidationError("articles", "unit_price must not be negative")
		}
	}
	return nil
}

// CommandHandler is the contract shared by the create-order handler and
// its observable decorator.
type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

// CreateOrderCommandHandler orchestrates the atomic creation sequence:
// validation, invoice upload, then one transaction covering the stock
// reservation and the order/item inserts.
type CreateOrderCommandHandler struct {
	repo     ports.OrderRepository
	invoices ports.InvoiceStore
	notifier ports.Notifier
	logger   *slog.Logger
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	invoices ports.InvoiceStore,
	notifier ports.Notifier,
	logger *slog.Logger,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:     repo,
		invoices: invoices,
		notifier: notifier,
		logger:   logger,
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	pricing := domain.Pricing{
		SubmittedSubtotal: *cmd.SubmittedSubtotal,
		ShippingFee:       *cmd.ShippingFee,
	}

	items := make([]domain.OrderItem, len(cmd.Items))
	for i, in := range cmd.Items {
		items[i] = domain.OrderItem{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
			Size:        in.Size,
			Color:       in.Color,
			LineTotal:   domain.LineSubtotal(in.UnitPrice, in.Quantity),
		}
	}

	// The submitted subtotal is trusted; a mismatch against the recomputed
	// line totals is only worth a warning.
	if computed := domain.ItemsSubtotal(items); computed != pricing.SubmittedSubtotal {
		h.logger.WarnContext(ctx, "submitted subtotal differs from recomputed line totals",
			"submitted", pricing.SubmittedSubtotal,
			"computed", computed,
		)
	}

	orderID := uuid.NewString()

	// Upload before touching stock: if the upload fails no reservation is
	// made, and if the transaction fails the orphaned document is removed.
	invoiceURL, err := h.invoices.Upload(ctx, orderID, cmd.InvoicePDF)
	if err != nil {
		return nil, fmt.Errorf("upload invoice: %w", err)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:          orderID,
		UserID:      cmd.UserID,
		Customer:    cmd.Customer,
		Delivery:    cmd.Delivery,
		ShippingFee: pricing.ShippingFee,
		Subtotal:    pricing.SubmittedSubtotal,
		Total:       pricing.Total(),
		Status:      domain.StatusPending,
		InvoiceURL:  invoiceURL,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := order.Validate(); err != nil {
		h.cleanupInvoice(ctx, invoiceURL)
		return nil, err
	}

	created, err := h.repo.CreateOrder(ctx, order)
	if err != nil {
		h.cleanupInvoice(ctx, invoiceURL)
		return nil, err
	}

	h.dispatchCreatedNotification(ctx, *created, cmd.InvoicePDF)

	return created, nil
}

// dispatchCreatedNotification emits the new-order and confirmation emails
// without blocking the response. Failures are logged, never propagated:
// reservation success is independent of notification success.
func (h *CreateOrderCommandHandler) dispatchCreatedNotification(ctx context.Context, order domain.Order, invoicePDF []byte) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := h.notifier.OrderCreated(notifyCtx, order, invoicePDF); err != nil {
			h.logger.ErrorContext(notifyCtx, "order created notification failed",
				"order_id", order.ID,
				"error", err,
			)
		}
	}()
}

func (h *CreateOrderCommandHandler) cleanupInvoice(ctx context.Context, url string) {
	if err := h.invoices.Delete(ctx, url); err != nil {
		h.logger.WarnContext(ctx, "failed to remove invoice after aborted creation",
			"invoice_url", url,
			"error", err,
		)
	}
}

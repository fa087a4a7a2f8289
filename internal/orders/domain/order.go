package domain

import (
	"strings"
	"time"
)

// Product is the slice of the catalog the order core reads and mutates.
// Only stock is written by this subsystem, via atomic increments and decrements.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UnitPrice  int64     `json:"unit_price"`
	Stock      int       `json:"stock"`
	OutOfStock bool      `json:"out_of_stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OrderItem is a single order line. The product name and unit price
// are snapshots taken at creation time and survive later catalog edits.
type OrderItem struct {
	ID          int64  `json:"id,omitempty"`
	OrderID     string `json:"order_id,omitempty"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
	LineTotal   int64  `json:"line_total"`
}

// Customer groups the contact fields captured with an order.
type Customer struct {
	Name  string `json:"nom"`
	Email string `json:"email"`
	Phone string `json:"telephone"`
}

// Delivery groups the shipping destination and method.
type Delivery struct {
	Address string `json:"adresse"`
	City    string `json:"ville"`
	Country string `json:"pays"`
	Method  string `json:"methode_livraison"`
}

// Order is the aggregate persisted by the order repository. Amounts are
// integer minor currency units; Total is always Subtotal + ShippingFee.
type Order struct {
	ID             string      `json:"id"`
	UserID         *string     `json:"user_id,omitempty"`
	Customer       Customer    `json:"client"`
	Delivery       Delivery    `json:"livraison"`
	ShippingFee    int64       `json:"frais_livraison"`
	Subtotal       int64       `json:"sous_total"`
	Total          int64       `json:"total"`
	Status         OrderStatus `json:"statut"`
	TrackingNumber string      `json:"numero_suivi,omitempty"`
	InvoiceURL     string      `json:"facture_url"`
	Items          []OrderItem `json:"articles"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	DeliveredAt    *time.Time  `json:"delivered_at,omitempty"`
}

// IsGuest reports whether the order has no owning authenticated user.
func (o Order) IsGuest() bool {
	return o.UserID == nil || *o.UserID == ""
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.Customer.Name) == "" {
		return NewValidationError("nom", "is required")
	}
	if strings.TrimSpace(o.Customer.Email) == "" {
		return NewValidationError("email", "is required")
	}
	if !strings.Contains(o.Customer.Email, "@") {
		return NewValidationError("email", "must be valid")
	}
	if strings.TrimSpace(o.Customer.Phone) == "" {
		return NewValidationError("telephone", "is required")
	}
	if strings.TrimSpace(o.Delivery.Address) == "" {
		return NewValidationError("adresse", "is required")
	}
	if strings.TrimSpace(o.Delivery.City) == "" {
		return NewValidationError("ville", "is required")
	}
	if o.ShippingFee < 0 {
		return NewValidationError("frais_livraison", "must not be negative")
	}
	if o.Subtotal <= 0 {
		return NewValidationError("prix_soumis", "must be positive")
	}
	if o.Total != o.Subtotal+o.ShippingFee {
		return NewValidationError("total", "must equal subtotal plus shipping fee")
	}
	if len(o.Items) == 0 {
		return NewValidationError("articles", "must not be empty")
	}
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks per-line constraints.
func (it OrderItem) Validate() error {
	if strings.TrimSpace(it.ProductID) == "" {
		return NewValidationError("articles", "product_id is required")
	}
	if it.Quantity <= 0 {
		return NewValidationError("articles", "quantity must be positive")
	}
	if it.UnitPrice < 0 {
		return NewValidationError("articles", "unit_price must not be negative")
	}
	return nil
}

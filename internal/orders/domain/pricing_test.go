package domain_test

import (
	"testing"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

func TestPricingTotal(t *testing.T) {
	p := domain.Pricing{SubmittedSubtotal: 3000, ShippingFee: 600}
	if got := p.Total(); got != 3600 {
		t.Errorf("Total() = %d, want 3600", got)
	}
}

func TestPricingValidate(t *testing.T) {
	tests := []struct {
		name    string
		pricing domain.Pricing
		wantErr bool
	}{
		{"valid amounts", domain.Pricing{SubmittedSubtotal: 1000, ShippingFee: 0}, false},
		{"negative shipping fee", domain.Pricing{SubmittedSubtotal: 1000, ShippingFee: -1}, true},
		{"zero subtotal", domain.Pricing{SubmittedSubtotal: 0, ShippingFee: 100}, true},
		{"negative subtotal", domain.Pricing{SubmittedSubtotal: -500, ShippingFee: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pricing.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestItemsSubtotal(t *testing.T) {
	items := []domain.OrderItem{
		{UnitPrice: 1500, Quantity: 2},
		{UnitPrice: 600, Quantity: 1},
	}
	if got := domain.ItemsSubtotal(items); got != 3600 {
		t.Errorf("ItemsSubtotal() = %d, want 3600", got)
	}

	if got := domain.ItemsSubtotal(nil); got != 0 {
		t.Errorf("ItemsSubtotal(nil) = %d, want 0", got)
	}
}

package domain

// Pricing holds the client-submitted amounts for an order. The submitted
// subtotal is the source of truth for the order's subtotal; it is not
// recomputed from a live price list.
type Pricing struct {
	SubmittedSubtotal int64
	ShippingFee       int64
}

// Total derives the order total from the trusted subtotal.
func (p Pricing) Total() int64 {
	return p.SubmittedSubtotal + p.ShippingFee
}

// Validate sanity-checks the submitted amounts: the shipping fee must not
// be negative and the subtotal must be strictly positive.
func (p Pricing) Validate() error {
	if p.ShippingFee < 0 {
		return NewValidationError("frais_livraison", "must not be negative")
	}
	if p.SubmittedSubtotal <= 0 {
		return NewValidationError("prix_soumis", "must be positive")
	}
	return nil
}

// LineSubtotal computes the deterministic per-line total.
func LineSubtotal(unitPrice int64, quantity int) int64 {
	return unitPrice * int64(quantity)
}

// ItemsSubtotal sums the recomputed per-line totals. It is compared against
// the submitted subtotal for drift detection only; the submitted value wins.
func ItemsSubtotal(items []OrderItem) int64 {
	var sum int64
	for _, item := range items {
		sum += LineSubtotal(item.UnitPrice, item.Quantity)
	}
	return sum
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced order or product does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller may not view or mutate the order.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidStatus is returned when a target status is outside the valid set.
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// OutOfStockError reports a product whose manual out-of-stock flag blocks reservation.
type OutOfStockError struct {
	ProductID   string
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.ProductName)
}

// InsufficientStockError reports a quantity that exceeds available stock.
// Available is included so the caller can resubmit with an adjusted quantity.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d requested, %d available",
		e.ProductName, e.Requested, e.Available)
}

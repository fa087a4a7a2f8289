package domain

// OrderStatus captures the lifecycle of an order: pending -> confirmed ->
// shipped -> delivered, with any non-terminal status cancellable. The
// cancelled state keeps its historical French wire literal "annulee".
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "annulee"
)

var validStatuses = map[OrderStatus]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusCancelled: true,
}

// ParseStatus validates a wire value against the closed status set.
func ParseStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if !validStatuses[status] {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// IsValid reports whether the status belongs to the closed set.
func (s OrderStatus) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal reports whether no further transition is allowed from the status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// pastRecall marks statuses an end user can no longer cancel out of.
func (s OrderStatus) pastRecall() bool {
	return s == StatusShipped || s == StatusDelivered
}

// CanRequestStatus applies the transition rules for a caller. A repeated
// target equal to the current status is allowed (idempotent no-op).
// Administrators may set any valid status on a non-terminal order; end
// users may only cancel, and only before the order has shipped.
func CanRequestStatus(caller Caller, current, target OrderStatus) error {
	if !target.IsValid() {
		return ErrInvalidStatus
	}
	if target == current {
		return nil
	}
	if current.IsTerminal() {
		return ErrForbidden
	}
	if caller.Admin {
		return nil
	}
	if target != StatusCancelled {
		return ErrForbidden
	}
	if current.pastRecall() {
		return ErrForbidden
	}
	return nil
}

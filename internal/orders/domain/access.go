package domain

// Caller identifies the principal behind a request. A zero Caller is an
// anonymous guest; guests may still reach an order via an exact email match.
type Caller struct {
	UserID string
	Email  string
	Admin  bool
}

// IsAnonymous reports whether the caller carries no authenticated identity.
func (c Caller) IsAnonymous() bool {
	return c.UserID == "" && !c.Admin
}

// CanAccess decides whether the caller may read or mutate the order.
// Access is granted to the owning user, to administrators, and to callers
// presenting the order's exact contact email. Guest orders have no owner,
// so only the last two paths apply to them.
func CanAccess(order Order, caller Caller) bool {
	if caller.Admin {
		return true
	}
	if !order.IsGuest() && caller.UserID != "" && caller.UserID == *order.UserID {
		return true
	}
	if caller.Email != "" && caller.Email == order.Customer.Email {
		return true
	}
	return false
}

package auth

import (
	"context"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

// Role constants used when checking authorisation boundaries.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity captures the authenticated principal extracted from a bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the identity carries the administrator role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Caller converts the identity into the domain's caller value. A nil
// identity yields an anonymous guest caller.
func (i *Identity) Caller() domain.Caller {
	if i == nil {
		return domain.Caller{}
	}
	return domain.Caller{
		UserID: i.UserID,
		Email:  i.Email,
		Admin:  i.IsAdmin(),
	}
}

type contextKey string

const identityContextKey contextKey = "github.com/ndiayelabs/boutique-api/internal/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenInvalid signals a bearer token that failed verification.
	ErrTokenInvalid = errors.New("auth: bearer token invalid")
)

// Claims is the JWT payload issued by the authentication service.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens issued by the auth service
// and attaches the resulting identity to the request context.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Verify parses and validates a raw token string.
func (a *Authenticator) Verify(raw string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	role := claims.Role
	if role == "" {
		role = RoleUser
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   role,
	}, nil
}

// Middleware extracts an optional bearer token. Requests without a token
// proceed anonymously so guest checkout and email-matched reads still
// work; an invalid token is rejected outright.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == header {
			unauthorized(w, "authorization header must use the Bearer scheme")
			return
		}

		identity, err := a.Verify(raw)
		if err != nil {
			unauthorized(w, "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireAdmin guards the back-office routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || !identity.IsAdmin() {
			forbidden(w, "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}

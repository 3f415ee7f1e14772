package domain

import (
	"context"
	"time"
)

// ============================================================
// Auth — passthrough types for the Supabase identity provider
// ============================================================

// Credentials is the body for sign-in and sign-up.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordResetRequest is the body for POST /v1/auth/password/reset-request.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordUpdateRequest is the body for PUT /v1/auth/password.
type PasswordUpdateRequest struct {
	Password string `json:"password"`
}

// User is the identity-provider view of an authenticated user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Session is the token pair issued by the identity provider.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Principal is the verified caller attached to a request context.
type Principal struct {
	UserID      string
	Email       string
	AccessToken string
}

// RoleAdmin may delete complaints.
const RoleAdmin = "admin"

// MinPasswordLength mirrors the identity provider's default policy.
const MinPasswordLength = 6

type principalKey struct{}

// WithPrincipal attaches the verified caller to ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller attached by WithPrincipal, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

// ComplaintStore is the hosted complaints table. Every call runs with the
// caller's access token taken from ctx, so row-level security decides what
// is visible.
type ComplaintStore interface {
	ListComplaints(ctx context.Context) ([]domain.Complaint, error)
	GetComplaint(ctx context.Context, id string) (*domain.Complaint, error)
	InsertComplaint(ctx context.Context, c *domain.Complaint) (*domain.Complaint, error)
	UpdateComplaint(ctx context.Context, id string, c *domain.Complaint) (*domain.Complaint, error)
	DeleteComplaint(ctx context.Context, id string) error
	CountComplaints(ctx context.Context) (int, error)

	// ListDeadlines returns every visible row projected to the id and
	// deadline columns, enough to compute a status.
	ListDeadlines(ctx context.Context) ([]domain.Complaint, error)
}

// IdentityProvider is the hosted authentication service.
type IdentityProvider interface {
	SignIn(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	SignUp(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
}

// RoleFetcher resolves the application role of a user.
type RoleFetcher interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

// KVStore persists small opaque values per key.
// Get returns found=false (and no error) for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

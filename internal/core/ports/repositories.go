package ports

import (
	"context"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

// UserRepository persists canonical user accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateWithAuthentication inserts a user and its first authentication in
	// one transaction-equivalent scope: a user without an authentication must
	// never be observable.
	CreateWithAuthentication(ctx context.Context, user *domain.User, auth *domain.Authentication) (*domain.User, *domain.Authentication, error)
}

// AuthenticationRepository persists per-provider authentication records.
type AuthenticationRepository interface {
	FindByProviderSubject(ctx context.Context, provider domain.Provider, subject string) (*domain.Authentication, error)
	FindByProviderEmail(ctx context.Context, provider domain.Provider, email string) (*domain.Authentication, error)
	Create(ctx context.Context, auth *domain.Authentication) (*domain.Authentication, error)
}

// RefreshTokenRepository persists refresh tokens. All lookups are by the
// sha256 hash of the presented value; raw values are never stored.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error)
	FindByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	// Rotate atomically marks the token identified by hash as rotated and
	// records its successor — but only while it is still active. Under two
	// concurrent refreshes of the same value, exactly one call succeeds; the
	// loser gets domain.ErrTokenNotFound and must treat the miss as reuse.
	Rotate(ctx context.Context, hash, replacedByID string) (*domain.RefreshToken, error)
	// Revoke marks the token identified by hash as revoked if still active.
	Revoke(ctx context.Context, hash string) error
	// RevokeAllForUser terminates every active token the user holds and
	// returns how many were revoked.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

// SecurityEventRepository stores the audit trail of security incidents.
type SecurityEventRepository interface {
	Record(ctx context.Context, event *domain.SecurityEvent) error
}

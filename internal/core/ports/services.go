package ports

import (
	"context"
	"time"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

// TokenPair is what a successful authentication yields: a short-lived signed
// access token and an opaque refresh value destined for the remember-me cookie.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AccessClaims is the validated content of an access token.
type AccessClaims struct {
	UserID    string
	Roles     []string
	ExpiresAt time.Time
}

// TokenService mints and rotates session credentials.
type TokenService interface {
	// Issue mints a fresh access/refresh pair starting a new rotation chain.
	Issue(ctx context.Context, user *domain.User) (*TokenPair, error)
	// Refresh rotates the presented refresh value. Tokens are single-use:
	// presenting a rotated or revoked value revokes the user's entire chain
	// and fails with domain.ErrTokenReuseDetected.
	Refresh(ctx context.Context, presented string) (*TokenPair, error)
	// Revoke terminates the chain holding the presented value (logout).
	Revoke(ctx context.Context, presented string) error
	// Validate verifies an access token's signature and expiry.
	Validate(token string) (*AccessClaims, error)
}

// RegisterInput carries the registration payload into the service layer.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      string
	Onboarding domain.OnboardingType
}

// AuthService orchestrates login, registration, token refresh, and profile
// retrieval across the identity providers.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)
	Register(ctx context.Context, input RegisterInput) (*TokenPair, *domain.User, error)
	Refresh(ctx context.Context, presented string) (*TokenPair, error)
	Logout(ctx context.Context, presented string) error
	Profile(ctx context.Context, userID string) (*domain.User, error)

	// OAuthAuthorizationURL issues a state nonce and builds the provider's
	// authorization URL.
	OAuthAuthorizationURL(ctx context.Context, provider domain.Provider) (url string, state string, err error)
	// OAuthCallback consumes the state, exchanges the code, resolves the
	// external identity, links or creates the canonical account, and issues
	// tokens.
	OAuthCallback(ctx context.Context, provider domain.Provider, code, state string) (*TokenPair, *domain.User, error)
}

// SecurityEventSink receives security incidents for asynchronous handling.
type SecurityEventSink interface {
	Report(event domain.SecurityEvent)
}

// SecurityEventService processes queued security events.
type SecurityEventService interface {
	Process(ctx context.Context, event domain.SecurityEvent) error
}

package ports

import (
	"context"
	"time"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

// ProviderToken is the result of exchanging an authorization code with an
// OAuth provider.
type ProviderToken struct {
	AccessToken   string
	IdentityToken string
	ExpiresAt     time.Time
}

// OAuthProvider is the capability contract implemented by the social
// variants (google, apple). Network failures surface as
// domain.ErrProviderUnavailable, provider rejections as domain.ErrProviderAuth.
type OAuthProvider interface {
	Name() domain.Provider
	// AuthorizationURL returns the URL users are redirected to, carrying the
	// given anti-CSRF state.
	AuthorizationURL(state string) string
	// ExchangeCode trades an authorization code for provider tokens.
	ExchangeCode(ctx context.Context, code string) (*ProviderToken, error)
	// FetchIdentity resolves provider tokens to a normalized identity. Apple
	// performs no remote call here: the identity lives entirely in the
	// identity token returned by the exchange.
	FetchIdentity(ctx context.Context, token *ProviderToken) (*domain.ExternalIdentity, error)
}

// PasswordAuthenticator is the email/password identity provider. It fails
// with domain.ErrInvalidCredentials for unknown email and wrong password
// alike.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// StateStore issues and consumes one-time OAuth state nonces.
type StateStore interface {
	Issue(ctx context.Context, provider domain.Provider) (string, error)
	// Consume validates and burns a state nonce; a second consume of the same
	// value fails with domain.ErrInvalidState.
	Consume(ctx context.Context, provider domain.Provider, state string) error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RiseNet-Web/gestasso-sub002/internal/api/metrics"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

// AuthService orchestrates the authentication flows: it composes the
// password provider, the OAuth providers, the identity linker, and the token
// service. It holds no state of its own beyond the wiring.
type AuthService struct {
	password  ports.PasswordAuthenticator
	linker    *Linker
	tokens    ports.TokenService
	users     ports.UserRepository
	auths     ports.AuthenticationRepository
	providers map[domain.Provider]ports.OAuthProvider
	states    ports.StateStore
}

func NewAuthService(
	password ports.PasswordAuthenticator,
	linker *Linker,
	tokens ports.TokenService,
	users ports.UserRepository,
	auths ports.AuthenticationRepository,
	providers map[domain.Provider]ports.OAuthProvider,
	states ports.StateStore,
) *AuthService {
	return &AuthService{
		password:  password,
		linker:    linker,
		tokens:    tokens,
		users:     users,
		auths:     auths,
		providers: providers,
		states:    states,
	}
}

// Login resolves the email/password credential and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
	user, err := s.password.Authenticate(ctx, email, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(domain.ProviderEmail), "failure").Inc()
		return nil, nil, err
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	metrics.LoginsTotal.WithLabelValues(string(domain.ProviderEmail), "success").Inc()
	return pair, user, nil
}

// Register creates a User and its email Authentication, then issues tokens.
// Fails with domain.ErrDuplicateEmail when the email is already taken.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.TokenPair, *domain.User, error) {
	if !input.Onboarding.Valid() {
		return nil, nil, fmt.Errorf("%w: onboarding type %q", domain.ErrInvalidCredentials, input.Onboarding)
	}

	email := domain.NormalizeEmail(input.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("check email availability: %w", err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:      email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Phone:      input.Phone,
		Roles:      input.Onboarding.Roles(),
		Onboarding: input.Onboarding,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	auth := &domain.Authentication{
		Provider:     domain.ProviderEmail,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	user, _, err = s.users.CreateWithAuthentication(ctx, user, auth)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(input.Onboarding)).Inc()
	return pair, user, nil
}

// Refresh rotates the presented refresh value.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*ports.TokenPair, error) {
	return s.tokens.Refresh(ctx, presented)
}

// Logout revokes the chain holding the presented refresh value.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	return s.tokens.Revoke(ctx, presented)
}

// Profile loads the public projection for a validated access token subject.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}
	return user, nil
}

// OAuthAuthorizationURL issues a one-time state nonce and returns the
// provider's authorization URL carrying it.
func (s *AuthService) OAuthAuthorizationURL(ctx context.Context, provider domain.Provider) (string, string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", "", domain.ErrUnknownProvider
	}

	state, err := s.states.Issue(ctx, provider)
	if err != nil {
		return "", "", fmt.Errorf("issue oauth state: %w", err)
	}

	return p.AuthorizationURL(state), state, nil
}

// OAuthCallback completes a social login: consume the state, exchange the
// code, resolve the identity, link or create the canonical account, and
// issue tokens.
func (s *AuthService) OAuthCallback(ctx context.Context, provider domain.Provider, code, state string) (*ports.TokenPair, *domain.User, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, nil, domain.ErrUnknownProvider
	}

	if err := s.states.Consume(ctx, provider, state); err != nil {
		return nil, nil, err
	}

	token, err := p.ExchangeCode(ctx, code)
	if err != nil {
		metrics.ProviderExchangesTotal.WithLabelValues(string(provider), "failure").Inc()
		return nil, nil, err
	}
	metrics.ProviderExchangesTotal.WithLabelValues(string(provider), "success").Inc()

	identity, err := p.FetchIdentity(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, _, err := s.linker.LinkOrCreate(ctx, identity)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(provider), "failure").Inc()
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, domain.ErrUserInactive
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	metrics.LoginsTotal.WithLabelValues(string(provider), "success").Inc()
	return pair, user, nil
}

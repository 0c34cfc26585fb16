package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

// dummyHash is a bcrypt hash of a value nobody knows. Comparing against it
// when the email is unknown keeps the failure path timing close to the
// wrong-password path, so the two cases are indistinguishable to a caller.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// PasswordProvider is the email/password identity provider: it resolves an
// (email, password) pair against the stored email authentication.
type PasswordProvider struct {
	users ports.UserRepository
	auths ports.AuthenticationRepository
}

func NewPasswordProvider(users ports.UserRepository, auths ports.AuthenticationRepository) *PasswordProvider {
	return &PasswordProvider{users: users, auths: auths}
}

// Authenticate verifies the password against the stored hash. Unknown email
// and wrong password both fail with domain.ErrInvalidCredentials.
func (p *PasswordProvider) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	auth, err := p.auths.FindByProviderEmail(ctx, domain.ProviderEmail, domain.NormalizeEmail(email))
	if err != nil {
		// Burn a hash comparison anyway so "unknown email" is not faster
		// than "wrong password".
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if !auth.Active {
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := p.users.FindByID(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", auth.UserID, err)
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	return user, nil
}

// HashPassword generates a bcrypt hash for storage on an email authentication.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

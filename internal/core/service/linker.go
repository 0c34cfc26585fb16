package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

// Linker maps a resolved external identity to the canonical user account.
// Resolution order: existing authentication for (provider, subject), then
// account merge by verified email, then atomic creation of user plus
// authentication.
type Linker struct {
	users ports.UserRepository
	auths ports.AuthenticationRepository
}

func NewLinker(users ports.UserRepository, auths ports.AuthenticationRepository) *Linker {
	return &Linker{users: users, auths: auths}
}

// LinkOrCreate resolves the identity to a (User, Authentication) pair,
// creating either as needed. Merging into an existing account by email is
// only permitted when the provider vouches for the email; otherwise it fails
// with domain.ErrUnverifiedEmailMerge.
func (l *Linker) LinkOrCreate(ctx context.Context, identity *domain.ExternalIdentity) (*domain.User, *domain.Authentication, error) {
	auth, err := l.auths.FindByProviderSubject(ctx, identity.Provider, identity.Subject)
	if err == nil {
		user, err := l.users.FindByID(ctx, auth.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("load linked user: %w", err)
		}
		return user, auth, nil
	}
	if !errors.Is(err, domain.ErrAuthNotFound) {
		return nil, nil, fmt.Errorf("find authentication: %w", err)
	}

	email := domain.NormalizeEmail(identity.Email)

	user, err := l.users.FindByEmail(ctx, email)
	if err == nil {
		if !identity.EmailVerified {
			return nil, nil, domain.ErrUnverifiedEmailMerge
		}
		auth, err := l.auths.Create(ctx, l.newAuthentication(user.ID, identity, email))
		if err != nil {
			return nil, nil, fmt.Errorf("link authentication: %w", err)
		}
		return user, auth, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("find user by email: %w", err)
	}

	now := time.Now().UTC()
	newUser := &domain.User{
		Email:     email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Roles:     []string{domain.RoleUser},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	user, auth, err = l.users.CreateWithAuthentication(ctx, newUser, l.newAuthentication("", identity, email))
	if err != nil {
		return nil, nil, fmt.Errorf("create user with authentication: %w", err)
	}
	return user, auth, nil
}

func (l *Linker) newAuthentication(userID string, identity *domain.ExternalIdentity, email string) *domain.Authentication {
	now := time.Now().UTC()
	return &domain.Authentication{
		UserID:    userID,
		Provider:  identity.Provider,
		Email:     email,
		Subject:   identity.Subject,
		Verified:  identity.EmailVerified,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

func seedEmailAccount(t *testing.T, users *memUserRepo, auths *memAuthRepo, email, password string, roles []string) *domain.User {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, _, err := users.CreateWithAuthentication(context.Background(),
		&domain.User{Email: email, Roles: roles, Active: true},
		&domain.Authentication{Provider: domain.ProviderEmail, Email: email, PasswordHash: hash, Verified: true, Active: true},
	)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return user
}

func TestPasswordProvider_Authenticate(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	seeded := seedEmailAccount(t, users, auths, "owner1@example.com", "password123", []string{domain.RoleUser, domain.RoleClubOwner})

	provider := NewPasswordProvider(users, auths)

	user, err := provider.Authenticate(context.Background(), "owner1@example.com", "password123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != seeded.ID {
		t.Fatalf("resolved user %q, want %q", user.ID, seeded.ID)
	}
	if !user.HasRole(domain.RoleClubOwner) {
		t.Fatalf("expected %s, got %v", domain.RoleClubOwner, user.Roles)
	}
}

func TestPasswordProvider_Authenticate_CaseInsensitiveEmail(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	seedEmailAccount(t, users, auths, "owner1@example.com", "password123", []string{domain.RoleUser})

	provider := NewPasswordProvider(users, auths)
	if _, err := provider.Authenticate(context.Background(), " Owner1@Example.COM ", "password123"); err != nil {
		t.Fatalf("authenticate with unnormalized email: %v", err)
	}
}

func TestPasswordProvider_Authenticate_UniformFailure(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	seedEmailAccount(t, users, auths, "owner1@example.com", "password123", []string{domain.RoleUser})

	provider := NewPasswordProvider(users, auths)

	// Unknown email and wrong password must be indistinguishable.
	if _, err := provider.Authenticate(context.Background(), "nobody@example.com", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := provider.Authenticate(context.Background(), "owner1@example.com", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
}

func TestPasswordProvider_Authenticate_InactiveUser(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	user := seedEmailAccount(t, users, auths, "owner1@example.com", "password123", []string{domain.RoleUser})

	users.mu.Lock()
	users.users[user.ID].Active = false
	users.mu.Unlock()

	provider := NewPasswordProvider(users, auths)
	if _, err := provider.Authenticate(context.Background(), "owner1@example.com", "password123"); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("got %v, want ErrUserInactive", err)
	}
}

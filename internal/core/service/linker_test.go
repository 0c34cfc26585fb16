package service

import (
	"context"
	"errors"
	"testing"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

func googleIdentity(subject, email string, verified bool) *domain.ExternalIdentity {
	return &domain.ExternalIdentity{
		Provider:      domain.ProviderGoogle,
		Subject:       subject,
		Email:         email,
		EmailVerified: verified,
		FirstName:     "Jean",
		LastName:      "Martin",
	}
}

func TestLinker_CreatesNewAccount(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	linker := NewLinker(users, auths)

	user, auth, err := linker.LinkOrCreate(context.Background(), googleIdentity("g-1", "jean@example.com", true))
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if user.Email != "jean@example.com" || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.HasRole(domain.RoleUser) {
		t.Fatalf("new social users get the base role, got %v", user.Roles)
	}
	if auth.Provider != domain.ProviderGoogle || auth.Subject != "g-1" || auth.UserID != user.ID {
		t.Fatalf("unexpected authentication: %+v", auth)
	}
}

func TestLinker_Idempotent(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	linker := NewLinker(users, auths)

	first, _, err := linker.LinkOrCreate(context.Background(), googleIdentity("g-1", "jean@example.com", true))
	if err != nil {
		t.Fatalf("first link: %v", err)
	}
	second, _, err := linker.LinkOrCreate(context.Background(), googleIdentity("g-1", "jean@example.com", true))
	if err != nil {
		t.Fatalf("second link: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same subject resolved to different users: %q vs %q", first.ID, second.ID)
	}
}

func TestLinker_MergesIntoVerifiedEmailAccount(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	existing := seedEmailAccount(t, users, auths, "jean@example.com", "password123", []string{domain.RoleUser})

	linker := NewLinker(users, auths)
	user, auth, err := linker.LinkOrCreate(context.Background(), googleIdentity("g-1", "jean@example.com", true))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if user.ID != existing.ID {
		t.Fatalf("merged into %q, want existing account %q", user.ID, existing.ID)
	}
	if auth.Provider != domain.ProviderGoogle || auth.UserID != existing.ID {
		t.Fatalf("unexpected linked authentication: %+v", auth)
	}
}

func TestLinker_RejectsUnverifiedEmailMerge(t *testing.T) {
	auths := newMemAuthRepo()
	users := newMemUserRepo(auths)
	seedEmailAccount(t, users, auths, "jean@example.com", "password123", []string{domain.RoleUser})

	linker := NewLinker(users, auths)
	if _, _, err := linker.LinkOrCreate(context.Background(), googleIdentity("g-1", "jean@example.com", false)); !errors.Is(err, domain.ErrUnverifiedEmailMerge) {
		t.Fatalf("got %v, want ErrUnverifiedEmailMerge", err)
	}
}

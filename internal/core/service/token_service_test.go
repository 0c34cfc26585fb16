package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

func newTestTokenService(t *testing.T, tokens *memTokenRepo, users *memUserRepo, sink *captureSink) *TokenService {
	t.Helper()
	return NewTokenService(tokens, users, testSigningKey(t), "gestasso-test", 15*time.Minute, 24*time.Hour, sink)
}

func activeUser(users *memUserRepo) *domain.User {
	return users.addUser(&domain.User{
		Email:  "owner1@example.com",
		Roles:  []string{domain.RoleUser, domain.RoleClubOwner},
		Active: true,
	})
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	tokens := newMemTokenRepo()
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, tokens, users, &captureSink{})
	user := activeUser(users)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	claims, err := svc.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("subject claim %q, want user id %q", claims.UserID, user.ID)
	}
	hasOwner := false
	for _, r := range claims.Roles {
		if r == domain.RoleClubOwner {
			hasOwner = true
		}
	}
	if !hasOwner {
		t.Fatalf("expected %s in claims, got %v", domain.RoleClubOwner, claims.Roles)
	}

	sum := sha256.Sum256([]byte(pair.RefreshToken))
	if got := tokens.statusOf(hex.EncodeToString(sum[:])); got != domain.RefreshActive {
		t.Fatalf("stored refresh token status %q, want active", got)
	}
}

func TestTokenService_Validate_Tampered(t *testing.T) {
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, newMemTokenRepo(), users, &captureSink{})

	pair, err := svc.Issue(context.Background(), activeUser(users))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Validate(pair.AccessToken + "x"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("tampered token: got %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.Validate("not-a-jwt"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("garbage token: got %v, want ErrUnauthenticated", err)
	}
}

func TestTokenService_Validate_ExpiredAccessToken(t *testing.T) {
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, newMemTokenRepo(), users, &captureSink{})

	past := time.Now().Add(-time.Hour)
	svc.WithClock(func() time.Time { return past })

	pair, err := svc.Issue(context.Background(), activeUser(users))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Validate(pair.AccessToken); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expired access token: got %v, want ErrUnauthenticated", err)
	}
}

func TestTokenService_Refresh_Rotates(t *testing.T) {
	tokens := newMemTokenRepo()
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, tokens, users, &captureSink{})

	pair, err := svc.Issue(context.Background(), activeUser(users))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh must rotate to a new value")
	}

	sum := sha256.Sum256([]byte(pair.RefreshToken))
	if got := tokens.statusOf(hex.EncodeToString(sum[:])); got != domain.RefreshRotated {
		t.Fatalf("old token status %q, want rotated", got)
	}
}

func TestTokenService_Refresh_ReuseRevokesChain(t *testing.T) {
	tokens := newMemTokenRepo()
	users := newMemUserRepo(newMemAuthRepo())
	sink := &captureSink{}
	svc := newTestTokenService(t, tokens, users, sink)
	user := activeUser(users)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// Replaying the rotated value is the theft signal.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrTokenReuseDetected) {
		t.Fatalf("second refresh: got %v, want ErrTokenReuseDetected", err)
	}

	// The successor must have been revoked along with the rest of the chain.
	sum := sha256.Sum256([]byte(next.RefreshToken))
	if got := tokens.statusOf(hex.EncodeToString(sum[:])); got != domain.RefreshRevoked {
		t.Fatalf("successor status %q, want revoked", got)
	}
	if _, err := svc.Refresh(context.Background(), next.RefreshToken); !errors.Is(err, domain.ErrTokenReuseDetected) {
		t.Fatalf("successor refresh after chain revocation: got %v, want ErrTokenReuseDetected", err)
	}

	events := sink.reported()
	if len(events) == 0 {
		t.Fatalf("expected a security event for the reuse")
	}
	if events[0].Kind != domain.EventTokenReuse || events[0].UserID != user.ID {
		t.Fatalf("unexpected security event: %+v", events[0])
	}
}

func TestTokenService_Refresh_UnknownToken(t *testing.T) {
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, newMemTokenRepo(), users, &captureSink{})

	if _, err := svc.Refresh(context.Background(), "never-issued"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("got %v, want ErrTokenNotFound", err)
	}
}

func TestTokenService_Refresh_Expired(t *testing.T) {
	tokens := newMemTokenRepo()
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, tokens, users, &captureSink{})

	issuedAt := time.Now().Add(-48 * time.Hour)
	svc.WithClock(func() time.Time { return issuedAt })
	pair, err := svc.Issue(context.Background(), activeUser(users))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// refreshTTL is 24h; two days later the token is dead.
	svc.WithClock(time.Now)
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestTokenService_Refresh_InactiveUser(t *testing.T) {
	tokens := newMemTokenRepo()
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, tokens, users, &captureSink{})

	user := users.addUser(&domain.User{Email: "gone@example.com", Roles: []string{domain.RoleUser}, Active: true})
	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	users.mu.Lock()
	users.users[user.ID].Active = false
	users.mu.Unlock()

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("got %v, want ErrUserInactive", err)
	}
}

func TestTokenService_Revoke(t *testing.T) {
	tokens := newMemTokenRepo()
	users := newMemUserRepo(newMemAuthRepo())
	svc := newTestTokenService(t, tokens, users, &captureSink{})

	pair, err := svc.Issue(context.Background(), activeUser(users))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	sum := sha256.Sum256([]byte(pair.RefreshToken))
	if got := tokens.statusOf(hex.EncodeToString(sum[:])); got != domain.RefreshRevoked {
		t.Fatalf("status %q, want revoked", got)
	}

	// Logout with an unknown value must not fail the request.
	if err := svc.Revoke(context.Background(), "never-issued"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}
}

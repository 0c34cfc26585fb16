package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
	"testing"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

// In-memory fixtures shared by the service tests.

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

type memAuthRepo struct {
	mu    sync.Mutex
	seq   int
	auths []*domain.Authentication
}

func newMemAuthRepo() *memAuthRepo {
	return &memAuthRepo{}
}

func (r *memAuthRepo) FindByProviderSubject(_ context.Context, provider domain.Provider, subject string) (*domain.Authentication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.auths {
		if a.Provider == provider && a.Subject == subject {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAuthNotFound
}

func (r *memAuthRepo) FindByProviderEmail(_ context.Context, provider domain.Provider, email string) (*domain.Authentication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.auths {
		if a.Provider == provider && a.Email == domain.NormalizeEmail(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAuthNotFound
}

func (r *memAuthRepo) Create(_ context.Context, auth *domain.Authentication) (*domain.Authentication, error) {
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.auths {
		if a.UserID == auth.UserID && a.Provider == auth.Provider {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.seq++
	cp := *auth
	cp.ID = fmt.Sprintf("auth-%d", r.seq)
	cp.Email = domain.NormalizeEmail(cp.Email)
	r.auths = append(r.auths, &cp)
	out := cp
	return &out, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
	auths *memAuthRepo
}

func newMemUserRepo(auths *memAuthRepo) *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User), auths: auths}
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) CreateWithAuthentication(ctx context.Context, user *domain.User, auth *domain.Authentication) (*domain.User, *domain.Authentication, error) {
	r.mu.Lock()
	email := domain.NormalizeEmail(user.Email)
	for _, u := range r.users {
		if u.Email == email {
			r.mu.Unlock()
			return nil, nil, domain.ErrDuplicateEmail
		}
	}
	r.seq++
	cp := *user
	cp.ID = fmt.Sprintf("user-%d", r.seq)
	cp.Email = email
	r.users[cp.ID] = &cp
	r.mu.Unlock()

	authCp := *auth
	authCp.UserID = cp.ID
	created, err := r.auths.Create(ctx, &authCp)
	if err != nil {
		return nil, nil, err
	}
	out := cp
	return &out, created, nil
}

// addUser seeds a user (plus optional email authentication) directly.
func (r *memUserRepo) addUser(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cp := *u
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("user-%d", r.seq)
	}
	cp.Email = domain.NormalizeEmail(cp.Email)
	r.users[cp.ID] = &cp
	out := cp
	return &out
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken // keyed by token hash
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *memTokenRepo) Create(_ context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[cp.TokenHash] = &cp
	out := cp
	return &out, nil
}

func (r *memTokenRepo) FindByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[hash]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	cp := *tok
	return &cp, nil
}

func (r *memTokenRepo) Rotate(_ context.Context, hash, replacedByID string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[hash]
	if !ok || tok.Status != domain.RefreshActive {
		return nil, domain.ErrTokenNotFound
	}
	tok.Status = domain.RefreshRotated
	tok.ReplacedBy = replacedByID
	cp := *tok
	return &cp, nil
}

func (r *memTokenRepo) Revoke(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[hash]
	if !ok || tok.Status != domain.RefreshActive {
		return domain.ErrTokenNotFound
	}
	tok.Status = domain.RefreshRevoked
	return nil
}

func (r *memTokenRepo) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, tok := range r.tokens {
		if tok.UserID == userID && tok.Status == domain.RefreshActive {
			tok.Status = domain.RefreshRevoked
			n++
		}
	}
	return n, nil
}

// statusOf reads a token's status by hash, for assertions.
func (r *memTokenRepo) statusOf(hash string) domain.RefreshTokenStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[hash]
	if !ok {
		return ""
	}
	return tok.Status
}

type captureSink struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
}

func (c *captureSink) Report(event domain.SecurityEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureSink) reported() []domain.SecurityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.SecurityEvent, len(c.events))
	copy(out, c.events)
	return out
}

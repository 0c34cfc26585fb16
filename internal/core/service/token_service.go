package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/RiseNet-Web/gestasso-sub002/internal/api/metrics"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

const refreshTokenBytes = 32 // 256 bits of entropy per refresh value

// accessClaims is the JWT payload of an access token.
type accessClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// TokenService mints RS256 access tokens and manages the refresh-token
// rotation chain.
type TokenService struct {
	tokens     ports.RefreshTokenRepository
	users      ports.UserRepository
	signingKey *rsa.PrivateKey
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	security   ports.SecurityEventSink
	now        func() time.Time
}

func NewTokenService(
	tokens ports.RefreshTokenRepository,
	users ports.UserRepository,
	signingKey *rsa.PrivateKey,
	issuer string,
	accessTTL, refreshTTL time.Duration,
	security ports.SecurityEventSink,
) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 365 * 24 * time.Hour
	}
	return &TokenService{
		tokens:     tokens,
		users:      users,
		signingKey: signingKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		security:   security,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue mints a fresh access/refresh pair and starts a new rotation chain.
func (s *TokenService) Issue(ctx context.Context, user *domain.User) (*ports.TokenPair, error) {
	access, err := s.mintAccessToken(user.ID, user.Roles)
	if err != nil {
		return nil, err
	}

	value, err := newRefreshValue()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ChainID:   uuid.NewString(),
		TokenHash: hashRefreshValue(value),
		Status:    domain.RefreshActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if _, err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &ports.TokenPair{
		AccessToken:      access,
		RefreshToken:     value,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

// Refresh rotates the presented refresh value: single use, mandatory
// rotation. Presenting an already-rotated or revoked value is treated as
// theft — the user's entire active chain is revoked and the call fails with
// domain.ErrTokenReuseDetected.
func (s *TokenService) Refresh(ctx context.Context, presented string) (*ports.TokenPair, error) {
	hash := hashRefreshValue(presented)

	current, err := s.tokens.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			metrics.TokenRotationsTotal.WithLabelValues("not_found").Inc()
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	if current.Status != domain.RefreshActive {
		return nil, s.handleReuse(ctx, current)
	}

	if current.Expired(s.now().UTC()) {
		metrics.TokenRotationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrTokenExpired
	}

	value, err := newRefreshValue()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	successor := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    current.UserID,
		ChainID:   current.ChainID,
		TokenHash: hashRefreshValue(value),
		Status:    domain.RefreshActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}

	// Conditional update: rotates only while still active. Exactly one of
	// two concurrent refreshes of the same value wins this CAS; the loser
	// lands on the reuse path.
	if _, err := s.tokens.Rotate(ctx, hash, successor.ID); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, s.handleReuse(ctx, current)
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	if _, err := s.tokens.Create(ctx, successor); err != nil {
		return nil, fmt.Errorf("persist successor token: %w", err)
	}

	user, err := s.users.FindByID(ctx, current.UserID)
	if err != nil {
		return nil, fmt.Errorf("load token owner: %w", err)
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	access, err := s.mintAccessToken(user.ID, user.Roles)
	if err != nil {
		return nil, err
	}

	metrics.TokenRotationsTotal.WithLabelValues("rotated").Inc()

	return &ports.TokenPair{
		AccessToken:      access,
		RefreshToken:     value,
		RefreshExpiresAt: successor.ExpiresAt,
	}, nil
}

// Revoke terminates the chain holding the presented value (logout). A chain
// has at most one active token, so revoking the presented one ends it.
func (s *TokenService) Revoke(ctx context.Context, presented string) error {
	err := s.tokens.Revoke(ctx, hashRefreshValue(presented))
	if err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Validate verifies an access token's signature and expiry and returns its
// claims. Any failure maps to domain.ErrUnauthenticated.
func (s *TokenService) Validate(token string) (*ports.AccessClaims, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return &s.signingKey.PublicKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthenticated
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &ports.AccessClaims{
		UserID:    claims.Subject,
		Roles:     claims.Roles,
		ExpiresAt: expiresAt,
	}, nil
}

// handleReuse is the theft path: invalidate every active token the user
// holds, report the incident, and fail the request.
func (s *TokenService) handleReuse(ctx context.Context, token *domain.RefreshToken) error {
	revoked, err := s.tokens.RevokeAllForUser(ctx, token.UserID)
	if err != nil {
		return fmt.Errorf("revoke chain after reuse: %w", err)
	}

	metrics.TokenReuseDetectedTotal.Inc()
	if s.security != nil {
		s.security.Report(domain.SecurityEvent{
			Kind:       domain.EventTokenReuse,
			UserID:     token.UserID,
			Detail:     fmt.Sprintf("chain %s: revoked %d active token(s)", token.ChainID, revoked),
			OccurredAt: s.now().UTC(),
		})
	}

	return domain.ErrTokenReuseDetected
}

func (s *TokenService) mintAccessToken(userID string, roles []string) (string, error) {
	now := s.now().UTC()
	claims := &accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Roles: roles,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// newRefreshValue returns a fresh opaque refresh value: 256 bits from
// crypto/rand, base64url without padding.
func newRefreshValue() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashRefreshValue is the at-rest form of a refresh value.
func hashRefreshValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

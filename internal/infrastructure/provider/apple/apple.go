// Package apple implements the Sign in with Apple identity provider. Apple
// exposes no userinfo endpoint: the identity is carried entirely by the
// identity token returned from the code exchange, and the exchange itself is
// authenticated with a per-request ES256 client secret instead of a static
// shared secret.
package apple

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

const (
	defaultAuthURL  = "https://appleid.apple.com/auth/authorize"
	defaultTokenURL = "https://appleid.apple.com/auth/token"
	defaultJWKSURL  = "https://appleid.apple.com/auth/keys"

	requestTimeout = 10 * time.Second
	retryBackoff   = 500 * time.Millisecond
)

// Config holds the Sign in with Apple credentials. SigningKeyPEM is the
// contents of the .p8 key file from the developer portal.
type Config struct {
	TeamID        string
	KeyID         string
	ClientID      string
	RedirectURL   string
	SigningKeyPEM string

	// VerifySignature enables identity-token verification against Apple's
	// JWKS. Disable only in tests.
	VerifySignature bool

	AuthURL  string
	TokenURL string
	JWKSURL  string

	HTTPClient *http.Client
}

// Provider implements ports.OAuthProvider for Apple.
type Provider struct {
	config     Config
	signingKey *ecdsa.PrivateKey
	jwks       *keyfunc.JWKS
	httpClient *http.Client
	now        func() time.Time
}

func New(cfg Config) (*Provider, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = defaultJWKSURL
	}

	key, err := ParseSigningKey([]byte(cfg.SigningKeyPEM))
	if err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	var jwks *keyfunc.JWKS
	if cfg.VerifySignature {
		jwks, err = keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			Client:            client,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    requestTimeout,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("load apple jwks: %w", err)
		}
	}

	return &Provider{
		config:     cfg,
		signingKey: key,
		jwks:       jwks,
		httpClient: client,
		now:        time.Now,
	}, nil
}

// Name implements ports.OAuthProvider.
func (p *Provider) Name() domain.Provider {
	return domain.ProviderApple
}

// AuthorizationURL implements ports.OAuthProvider. Apple requires
// response_mode=form_post whenever scopes are requested.
func (p *Provider) AuthorizationURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"response_mode": {"form_post"},
		"scope":         {"name email"},
		"state":         {state},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// ExchangeCode implements ports.OAuthProvider. A fresh client secret is
// signed for every call; Apple rejects exchanges presented with an expired
// assertion.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*ports.ProviderToken, error) {
	secret, err := BuildClientSecret(p.config.TeamID, p.config.KeyID, p.config.ClientID, p.signingKey, p.now())
	if err != nil {
		return nil, err
	}

	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {secret},
		"code":          {code},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	body, status, err := p.postForm(ctx, p.config.TokenURL, data)
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: apple: invalid token response", domain.ErrProviderAuth)
	}
	if status != http.StatusOK || resp.Error != "" {
		return nil, fmt.Errorf("%w: apple: %s", domain.ErrProviderAuth, resp.errorText())
	}
	if resp.IDToken == "" {
		return nil, fmt.Errorf("%w: apple: missing identity token", domain.ErrProviderAuth)
	}

	token := &ports.ProviderToken{
		AccessToken:   resp.AccessToken,
		IdentityToken: resp.IDToken,
	}
	if resp.ExpiresIn > 0 {
		token.ExpiresAt = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return token, nil
}

// FetchIdentity implements ports.OAuthProvider. No network call happens
// here: the identity is extracted from the identity token obtained during
// the exchange, verified against Apple's JWKS when enabled.
func (p *Provider) FetchIdentity(_ context.Context, token *ports.ProviderToken) (*domain.ExternalIdentity, error) {
	var claims *IdentityClaims
	var err error

	if p.jwks != nil {
		claims, err = VerifyIdentityToken(p.jwks, p.config.ClientID, token.IdentityToken)
	} else {
		claims, err = DecodeIdentityToken(token.IdentityToken)
	}
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: apple: identity token missing subject", domain.ErrProviderAuth)
	}

	return &domain.ExternalIdentity{
		Provider:      domain.ProviderApple,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
	}, nil
}

// postForm sends a form POST, retrying once after a short backoff when the
// transport fails. Provider rejections are never retried.
func (p *Provider) postForm(ctx context.Context, endpoint string, data url.Values) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, fmt.Errorf("%w: apple: %v", domain.ErrProviderUnavailable, ctx.Err())
			case <-time.After(retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
		if err != nil {
			return nil, 0, fmt.Errorf("apple token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, fmt.Errorf("%w: apple: %v", domain.ErrProviderUnavailable, lastErr)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	Error        string `json:"error"`
}

func (r tokenResponse) errorText() string {
	if r.Error != "" {
		return r.Error
	}
	return "token exchange failed"
}

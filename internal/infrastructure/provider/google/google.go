// Package google implements the Google OAuth identity provider: code
// exchange against Google's token endpoint and identity resolution via the
// OpenID userinfo endpoint.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	requestTimeout = 10 * time.Second
	retryBackoff   = 500 * time.Millisecond
)

// Config holds Google OAuth credentials and endpoint overrides. Overrides
// exist for tests; zero values select Google's production endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

// Provider implements ports.OAuthProvider for Google.
type Provider struct {
	config     Config
	httpClient *http.Client
}

func New(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "email", "profile"}
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	return &Provider{config: cfg, httpClient: client}
}

// Name implements ports.OAuthProvider.
func (p *Provider) Name() domain.Provider {
	return domain.ProviderGoogle
}

// AuthorizationURL implements ports.OAuthProvider.
func (p *Provider) AuthorizationURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {strings.Join(p.config.Scopes, " ")},
		"state":         {state},
		"access_type":   {"offline"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// ExchangeCode implements ports.OAuthProvider.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*ports.ProviderToken, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
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
		return nil, fmt.Errorf("%w: google: invalid token response", domain.ErrProviderAuth)
	}
	if status != http.StatusOK || resp.Error != "" {
		return nil, fmt.Errorf("%w: google: %s", domain.ErrProviderAuth, resp.errorText())
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: google: missing access token", domain.ErrProviderAuth)
	}

	token := &ports.ProviderToken{
		AccessToken:   resp.AccessToken,
		IdentityToken: resp.IDToken,
	}
	if resp.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return token, nil
}

// FetchIdentity implements ports.OAuthProvider: it resolves the access token
// via Google's userinfo endpoint.
func (p *Provider) FetchIdentity(ctx context.Context, token *ports.ProviderToken) (*domain.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: google userinfo: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: google userinfo: %v", domain.ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: google userinfo returned %d", domain.ErrProviderAuth, resp.StatusCode)
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: google: invalid userinfo response", domain.ErrProviderAuth)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: google: userinfo missing subject", domain.ErrProviderAuth)
	}

	return &domain.ExternalIdentity{
		Provider:      domain.ProviderGoogle,
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		FirstName:     info.GivenName,
		LastName:      info.FamilyName,
	}, nil
}

// postForm sends a form POST with a single retry after a short backoff when
// the transport fails (network calls may be retried once before surfacing
// provider-unavailable; provider rejections are never retried).
func (p *Provider) postForm(ctx context.Context, endpoint string, data url.Values) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, fmt.Errorf("%w: google: %v", domain.ErrProviderUnavailable, ctx.Err())
			case <-time.After(retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
		if err != nil {
			return nil, 0, fmt.Errorf("google token request: %w", err)
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

	return nil, 0, fmt.Errorf("%w: google: %v", domain.ErrProviderUnavailable, lastErr)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

func (r tokenResponse) errorText() string {
	switch {
	case r.Error != "" && r.ErrorDesc != "":
		return r.Error + ": " + r.ErrorDesc
	case r.Error != "":
		return r.Error
	default:
		return "token exchange failed"
	}
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

func TestProvider_AuthorizationURL(t *testing.T) {
	p := New(Config{
		ClientID:    "client-1",
		RedirectURL: "https://app.gestasso.fr/auth/google/callback",
	})

	u := p.AuthorizationURL("state-1")
	for _, want := range []string{"client_id=client-1", "state=state-1", "response_type=code", "scope=openid+email+profile"} {
		if !strings.Contains(u, want) {
			t.Fatalf("authorization url %q missing %q", u, want)
		}
	}
}

func TestProvider_ExchangeAndFetchIdentity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("code") != "code-1" || r.PostForm.Get("grant_type") != "authorization_code" {
			t.Fatalf("unexpected form: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","expires_in":3600,"id_token":"idt-1"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Fatalf("authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"g-42","email":"jean@example.com","email_verified":true,"given_name":"Jean","family_name":"Martin"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := New(Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURL:  "https://app.gestasso.fr/auth/google/callback",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		HTTPClient:   srv.Client(),
	})

	token, err := p.ExchangeCode(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token.AccessToken != "at-1" || token.IdentityToken != "idt-1" {
		t.Fatalf("unexpected token: %+v", token)
	}

	identity, err := p.FetchIdentity(context.Background(), token)
	if err != nil {
		t.Fatalf("fetch identity: %v", err)
	}
	if identity.Provider != domain.ProviderGoogle || identity.Subject != "g-42" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if !identity.EmailVerified || identity.FirstName != "Jean" || identity.LastName != "Martin" {
		t.Fatalf("unexpected identity detail: %+v", identity)
	}
}

func TestProvider_ExchangeCode_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"expired code"}`))
	}))
	defer srv.Close()

	p := New(Config{TokenURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := p.ExchangeCode(context.Background(), "stale"); !errors.Is(err, domain.ErrProviderAuth) {
		t.Fatalf("got %v, want ErrProviderAuth", err)
	}
}

func TestProvider_ExchangeCode_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // transport failures from here on

	p := New(Config{TokenURL: srv.URL, HTTPClient: &http.Client{Timeout: time.Second}})
	if _, err := p.ExchangeCode(context.Background(), "code"); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("got %v, want ErrProviderUnavailable", err)
	}
}

func TestProvider_FetchIdentity_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := New(Config{UserInfoURL: srv.URL, HTTPClient: srv.Client()})
	token := &ports.ProviderToken{AccessToken: "revoked"}
	if _, err := p.FetchIdentity(context.Background(), token); !errors.Is(err, domain.ErrProviderAuth) {
		t.Fatalf("got %v, want ErrProviderAuth", err)
	}
}

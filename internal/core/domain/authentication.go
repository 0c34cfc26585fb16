package domain

import "time"

// Provider identifies an identity provider kind.
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// Valid reports whether the provider is part of the closed set.
func (p Provider) Valid() bool {
	switch p {
	case ProviderEmail, ProviderGoogle, ProviderApple:
		return true
	}
	return false
}

// Authentication links a User to one identity provider. At most one record
// exists per (user, provider) pair: the email variant carries a password
// hash, the social variants carry the provider's subject identifier.
type Authentication struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Provider     Provider  `json:"provider"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Subject      string    `json:"-"`
	Verified     bool      `json:"verified"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate enforces the per-provider shape: email authentications need a
// password hash, social authentications need an external subject.
func (a *Authentication) Validate() error {
	if !a.Provider.Valid() {
		return ErrUnknownProvider
	}
	if a.Provider == ProviderEmail && a.PasswordHash == "" {
		return ErrMissingPasswordHash
	}
	if a.Provider != ProviderEmail && a.Subject == "" {
		return ErrMissingSubject
	}
	return nil
}

// ExternalIdentity is what a social provider resolves a credential to.
type ExternalIdentity struct {
	Provider      Provider
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

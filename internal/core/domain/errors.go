package domain

import "errors"

// Authentication failures. Login reports the same error for an unknown email
// and a wrong password so callers cannot enumerate accounts.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrUnverifiedEmailMerge = errors.New("cannot merge accounts on unverified email")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserInactive         = errors.New("user account deactivated")
)

// Provider failures. Raw transport errors never cross the provider boundary.
var (
	ErrUnknownProvider     = errors.New("unknown identity provider")
	ErrProviderAuth        = errors.New("provider rejected authentication")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrMalformedToken      = errors.New("malformed token")
	ErrInvalidState        = errors.New("invalid or expired oauth state")
)

// Refresh token failures.
var (
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")
)

// Model invariants.
var (
	ErrMissingPasswordHash = errors.New("email authentication requires a password hash")
	ErrMissingSubject      = errors.New("social authentication requires an external subject")
	ErrAuthNotFound        = errors.New("authentication not found")
)

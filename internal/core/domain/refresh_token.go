package domain

import "time"

// RefreshTokenStatus is the lifecycle state of a refresh token.
type RefreshTokenStatus string

const (
	RefreshActive  RefreshTokenStatus = "active"
	RefreshRotated RefreshTokenStatus = "rotated"
	RefreshRevoked RefreshTokenStatus = "revoked"
)

// refreshTransitions defines the allowed state machine transitions. Both
// rotated and revoked are terminal.
var refreshTransitions = map[RefreshTokenStatus][]RefreshTokenStatus{
	RefreshActive: {RefreshRotated, RefreshRevoked},
}

// CanTransitionTo reports whether moving from the current status to next is valid.
func (s RefreshTokenStatus) CanTransitionTo(next RefreshTokenStatus) bool {
	for _, allowed := range refreshTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RefreshToken is the opaque long-lived credential backing the remember-me
// cookie. The raw value never touches storage: only its sha256 hash is
// persisted. Tokens are single-use; a successful refresh rotates the token
// and records its successor, forming a chain under one ChainID.
type RefreshToken struct {
	ID         string             `json:"id" bson:"_id,omitempty"`
	UserID     string             `json:"user_id" bson:"user_id"`
	ChainID    string             `json:"chain_id" bson:"chain_id"`
	TokenHash  string             `json:"-" bson:"token_hash"`
	Status     RefreshTokenStatus `json:"status" bson:"status"`
	ReplacedBy string             `json:"replaced_by,omitempty" bson:"replaced_by,omitempty"`
	IssuedAt   time.Time          `json:"issued_at" bson:"issued_at"`
	ExpiresAt  time.Time          `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the token's lifetime has elapsed at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// SecurityEventKind classifies recorded security events.
type SecurityEventKind string

const (
	// EventTokenReuse is emitted when a rotated or revoked refresh token is
	// presented again: the theft signal that invalidates the whole chain.
	EventTokenReuse SecurityEventKind = "refresh_token_reuse"
	// EventChainRevoked is emitted when all of a user's refresh tokens are
	// force-revoked.
	EventChainRevoked SecurityEventKind = "refresh_chain_revoked"
)

// SecurityEvent is an audit record for security-relevant incidents.
type SecurityEvent struct {
	ID         string            `json:"id" bson:"_id,omitempty"`
	Kind       SecurityEventKind `json:"kind" bson:"kind"`
	UserID     string            `json:"user_id" bson:"user_id"`
	Detail     string            `json:"detail,omitempty" bson:"detail,omitempty"`
	OccurredAt time.Time         `json:"occurred_at" bson:"occurred_at"`
}

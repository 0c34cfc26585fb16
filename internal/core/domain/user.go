package domain

import (
	"strings"
	"time"
)

const (
	RoleUser      = "ROLE_USER"
	RoleMember    = "ROLE_MEMBER"
	RoleClubOwner = "ROLE_CLUB_OWNER"
)

// OnboardingType captures which registration flow created the account.
type OnboardingType string

const (
	OnboardingMember    OnboardingType = "member"
	OnboardingClubOwner OnboardingType = "club_owner"
)

// Valid reports whether the onboarding type is one of the known flows.
func (o OnboardingType) Valid() bool {
	return o == OnboardingMember || o == OnboardingClubOwner
}

// Roles returns the role set granted by this onboarding flow.
func (o OnboardingType) Roles() []string {
	switch o {
	case OnboardingClubOwner:
		return []string{RoleUser, RoleClubOwner}
	case OnboardingMember:
		return []string{RoleUser, RoleMember}
	default:
		return []string{RoleUser}
	}
}

// User is the canonical account: exactly one per human regardless of how many
// identity providers are linked to it. This subsystem never deletes users,
// only deactivates them.
type User struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Phone      string         `json:"phone,omitempty"`
	Roles      []string       `json:"roles"`
	Onboarding OnboardingType `json:"onboarding,omitempty"`
	Active     bool           `json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an address so lookups and the unique
// email index behave case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package domain

import (
	"testing"
	"time"
)

func TestRefreshTokenStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to RefreshTokenStatus
		allowed  bool
	}{
		{RefreshActive, RefreshRotated, true},
		{RefreshActive, RefreshRevoked, true},
		{RefreshRotated, RefreshActive, false},
		{RefreshRotated, RefreshRevoked, false},
		{RefreshRevoked, RefreshActive, false},
		{RefreshRevoked, RefreshRotated, false},
		{RefreshActive, RefreshActive, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := RefreshToken{ExpiresAt: now}

	if token.Expired(now) {
		t.Fatalf("token should not be expired exactly at its deadline")
	}
	if !token.Expired(now.Add(time.Second)) {
		t.Fatalf("token should be expired after its deadline")
	}
	if token.Expired(now.Add(-time.Hour)) {
		t.Fatalf("token should not be expired before its deadline")
	}
}

package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

const (
	stateKeyPrefix  = "oauth_state"
	defaultStateTTL = 10 * time.Minute
	stateBytes      = 32
)

// StateStore issues one-time OAuth state nonces backed by Redis with a
// short TTL. Consume uses GETDEL, so a nonce can be redeemed exactly once.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Issue(ctx context.Context, provider domain.Provider) (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.client.Set(ctx, stateKey(provider, state), "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return state, nil
}

func (s *StateStore) Consume(ctx context.Context, provider domain.Provider, state string) error {
	if state == "" {
		return domain.ErrInvalidState
	}

	err := s.client.GetDel(ctx, stateKey(provider, state)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrInvalidState
		}
		return fmt.Errorf("consume state: %w", err)
	}
	return nil
}

func stateKey(provider domain.Provider, state string) string {
	return fmt.Sprintf("%s:%s:%s", stateKeyPrefix, provider, state)
}

// Package tokenstore holds revocation markers for session tokens. Keys are
// hashes of revoked tokens; a marker lives exactly as long as the token it
// shadows would have stayed valid, so the store never grows unbounded.
package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SetRevoked writes the marker with the token's remaining validity as ttl.
// A non-positive ttl means the token is already expired and needs no marker.
// Last write wins on racing revokes of the same token; any race can only
// shorten how long the marker is visible, never resurrect the token.
func (s *RedisStore) SetRevoked(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedPrefix+key, "blocked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to set revocation marker: %w", err)
	}
	return nil
}

// IsRevoked treats an absent or lapsed key as "not revoked".
func (s *RedisStore) IsRevoked(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation marker: %w", err)
	}
	return n > 0, nil
}

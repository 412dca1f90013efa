// Package otp stores short-lived email verification codes in redis.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const codePrefix = "otp:"

// ErrCodeInvalid is returned when the code is wrong, expired or was never sent.
var ErrCodeInvalid = errors.New("verification code invalid or expired")

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

// Generate creates a six-digit code for the address and stores it under
// otp:<email>. A second call replaces the outstanding code and resets the ttl.
func (s *Store) Generate(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	if err := s.client.Set(ctx, codePrefix+email, code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}
	return code, nil
}

// consumeScript deletes the code only when it matches, in one round trip,
// so concurrent verifies with the correct code cannot both succeed. A wrong
// code leaves the stored one in place until its ttl runs out.
var consumeScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Verify checks the code against the stored one and consumes it on success.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	if code == "" {
		return ErrCodeInvalid
	}

	consumed, err := consumeScript.Run(ctx, s.client, []string{codePrefix + email}, code).Int()
	if err != nil {
		return fmt.Errorf("failed to verify code: %w", err)
	}
	if consumed == 0 {
		return ErrCodeInvalid
	}
	return nil
}

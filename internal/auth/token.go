package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

func DefaultTokenConfig(secret string) TokenConfig {
	return TokenConfig{
		Secret: secret,
		Expiry: 7 * 24 * time.Hour,
		Issuer: "nexconnect-server",
	}
}

// RevocationStore is the negative cache consulted on every validation.
// A key is present only while a revoked token would otherwise still be
// structurally valid; absence means "not revoked".
type RevocationStore interface {
	SetRevoked(ctx context.Context, key string, ttl time.Duration) error
	IsRevoked(ctx context.Context, key string) (bool, error)
}

// Manager issues, validates and revokes session tokens. Validity lives in
// the token's own signed expiry, so Issue never writes to the store;
// Validate costs exactly one store read.
type Manager struct {
	cfg   TokenConfig
	store RevocationStore
	now   func() time.Time
}

func NewManager(cfg TokenConfig, store RevocationStore) *Manager {
	return NewManagerWithNow(cfg, store, time.Now)
}

func NewManagerWithNow(cfg TokenConfig, store RevocationStore, now func() time.Time) *Manager {
	return &Manager{cfg: cfg, store: store, now: now}
}

func (m *Manager) Issue(userID string) (string, error) {
	if m.cfg.Secret == "" {
		return "", errors.New("missing secret")
	}
	if userID == "" {
		return "", errors.New("missing userID")
	}
	if m.cfg.Expiry <= 0 {
		return "", errors.New("invalid expiry")
	}

	jtiBytes := make([]byte, 16)
	if _, err := rand.Read(jtiBytes); err != nil {
		return "", err
	}
	jti := hex.EncodeToString(jtiBytes)

	now := m.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.Expiry)),
			ID:        jti,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.Secret))
}

// Validate returns the owning user id. Expiry is checked before the store
// is consulted, so a token past its window fails with ErrExpired even after
// its revocation marker has self-expired.
func (m *Manager) Validate(ctx context.Context, tokenString string) (string, error) {
	claims, err := m.parse(tokenString, true)
	if err != nil {
		return "", err
	}

	revoked, err := m.store.IsRevoked(ctx, RevocationKey(tokenString))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if revoked {
		return "", ErrRevoked
	}
	return claims.UserID, nil
}

// Revoke writes a revocation marker with a ttl equal to the token's
// remaining validity. Revoking an already-expired token is a no-op; the
// token cannot be used anyway. Idempotent.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.parse(tokenString, false)
	if err != nil {
		return err
	}
	if claims.ExpiresAt == nil {
		return ErrInvalid
	}

	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if err := m.store.SetRevoked(ctx, RevocationKey(tokenString), ttl); err != nil {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return nil
}

func (m *Manager) parse(tokenString string, checkExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// RevocationKey hashes the token before it is used as a store key so a
// compromised store never holds raw bearer credentials.
func RevocationKey(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}

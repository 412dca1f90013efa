package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisStore(client)
}

func TestRedisStore_SetAndCheck(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked, "unknown key must read as not revoked")

	require.NoError(t, store.SetRevoked(ctx, "abc", time.Hour))

	revoked, err = store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedisStore_MarkerLapses(t *testing.T) {
	mr, store := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SetRevoked(ctx, "abc", time.Minute))
	mr.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked, "lapsed marker must read as not revoked")
}

func TestRedisStore_ZeroTTLIsNoop(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SetRevoked(ctx, "abc", 0))
	require.NoError(t, store.SetRevoked(ctx, "abc", -time.Second))

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisStore_RepeatedRevokeKeepsMarker(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SetRevoked(ctx, "abc", time.Hour))
	require.NoError(t, store.SetRevoked(ctx, "abc", 30*time.Minute))

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked, "racing revokes must not clear the marker")
}

func TestRedisStore_ErrorSurfaces(t *testing.T) {
	mr, store := setupRedis(t)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "abc")
	assert.Error(t, err)
}

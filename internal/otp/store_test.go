package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewStore(client, 5*time.Minute)
}

func TestStore_GenerateAndVerify(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	require.NoError(t, store.Verify(ctx, "alice@example.com", code))

	// Consumed on success: a replay fails.
	assert.ErrorIs(t, store.Verify(ctx, "alice@example.com", code), ErrCodeInvalid)
}

func TestStore_WrongCode(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Verify(ctx, "alice@example.com", "000000"), ErrCodeInvalid)
	assert.ErrorIs(t, store.Verify(ctx, "alice@example.com", ""), ErrCodeInvalid)

	// A failed attempt does not burn the real code.
	require.NoError(t, store.Verify(ctx, "alice@example.com", code))
}

func TestStore_ConcurrentVerifyConsumesOnce(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, "alice@example.com")
	require.NoError(t, err)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Verify(ctx, "alice@example.com", code)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrCodeInvalid)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestStore_CodeExpires(t *testing.T) {
	mr, store := setupStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, "alice@example.com")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)
	assert.ErrorIs(t, store.Verify(ctx, "alice@example.com", code), ErrCodeInvalid)
}

func TestStore_RegenerateReplaces(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	first, err := store.Generate(ctx, "alice@example.com")
	require.NoError(t, err)
	second, err := store.Generate(ctx, "alice@example.com")
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, store.Verify(ctx, "alice@example.com", first), ErrCodeInvalid)
	}
	require.NoError(t, store.Verify(ctx, "alice@example.com", second))
}

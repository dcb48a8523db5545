package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client, time.Minute)
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr, store := newRedisStore(t)

	require.NoError(t, store.Open(ctx, "abc", 7))
	assert.True(t, mr.Exists("session:abc"))

	userID, err := store.Touch(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	require.NoError(t, store.SetInt(ctx, "abc", BranchKey, 42))
	value, ok, err := store.GetInt(ctx, "abc", BranchKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), value)

	_, ok, err = store.GetInt(ctx, "abc", CarKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Close(ctx, "abc"))
	_, err = store.Touch(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SetInt(ctx, "abc", BranchKey, 1), ErrNotFound)
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	mr, store := newRedisStore(t)

	require.NoError(t, store.Open(ctx, "abc", 7))
	mr.FastForward(2 * time.Minute)

	_, err := store.Touch(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreSetIntDoesNotReviveExpiredSession(t *testing.T) {
	ctx := context.Background()
	mr, store := newRedisStore(t)

	require.NoError(t, store.Open(ctx, "abc", 7))
	mr.FastForward(2 * time.Minute)

	assert.ErrorIs(t, store.SetInt(ctx, "abc", CarKey, 5), ErrNotFound)
	assert.False(t, mr.Exists("session:abc"))

	require.NoError(t, store.Open(ctx, "abc", 7))
	require.NoError(t, store.SetInt(ctx, "abc", CarKey, 5))
	assert.Equal(t, "5", mr.HGet("session:abc", CarKey))
	assert.Positive(t, mr.TTL("session:abc"))
}

func TestRedisStoreTouchSlidesExpiry(t *testing.T) {
	ctx := context.Background()
	mr, store := newRedisStore(t)

	require.NoError(t, store.Open(ctx, "abc", 7))
	mr.FastForward(40 * time.Second)
	_, err := store.Touch(ctx, "abc")
	require.NoError(t, err)
	mr.FastForward(40 * time.Second)

	_, err = store.Touch(ctx, "abc")
	assert.NoError(t, err)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Open(ctx, "abc", 3))
	now = now.Add(30 * time.Second)
	userID, err := store.Touch(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(3), userID)

	now = now.Add(61 * time.Second)
	_, err = store.Touch(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore on it
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "session", ttl), mr
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyPendingPayment, []byte("ref-1")))
	assert.True(t, mr.Exists("session:"+KeyPendingPayment))

	got, err := store.Get(ctx, KeyPendingPayment)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", string(got))

	require.NoError(t, store.Delete(ctx, KeyPendingPayment))
	_, err = store.Get(ctx, KeyPendingPayment)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SessionTTLExpires(t *testing.T) {
	store, mr := setupTestRedis(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyPendingPayment, []byte("ref-2")))
	assert.Equal(t, 30*time.Minute, mr.TTL("session:"+KeyPendingPayment))

	mr.FastForward(31 * time.Minute)

	_, err := store.Get(ctx, KeyPendingPayment)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "redis get failed")
}

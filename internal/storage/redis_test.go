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

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	store := NewRedisStore(client, "sf:abc:durable", 0)

	_, err := store.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "cart", `[{"id":"1"}]`))
	v, err := store.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, store.Remove(ctx, "cart"))
	_, err = store.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorePrefixIsolation(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	a := NewRedisStore(client, "sf:a:durable", 0)
	b := NewRedisStore(client, "sf:b:durable", 0)

	require.NoError(t, a.Set(ctx, "theme", "dark"))
	_, err := b.Get(ctx, "theme")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreSessionTTL(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	durable := NewRedisStore(client, "sf:abc:durable", 0)
	session := NewRedisStore(client, "sf:abc:session", time.Minute)

	require.NoError(t, durable.Set(ctx, "customer", `{"name":"Maria"}`))
	require.NoError(t, session.Set(ctx, "phones", `{"phone":"11987654321"}`))

	mr.FastForward(2 * time.Minute)

	_, err := session.Get(ctx, "phones")
	assert.ErrorIs(t, err, ErrNotFound, "session keys expire")

	v, err := durable.Get(ctx, "customer")
	require.NoError(t, err, "durable keys survive")
	assert.Equal(t, `{"name":"Maria"}`, v)
}

func TestRedisStoreClear(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	store := NewRedisStore(client, "sf:abc:session", time.Minute)
	other := NewRedisStore(client, "sf:xyz:session", time.Minute)

	require.NoError(t, store.Set(ctx, "phones", "x"))
	require.NoError(t, store.Set(ctx, "scheduled_order", "y"))
	require.NoError(t, other.Set(ctx, "phones", "z"))

	require.NoError(t, store.Clear(ctx))

	_, err := store.Get(ctx, "phones")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "scheduled_order")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := other.Get(ctx, "phones")
	require.NoError(t, err)
	assert.Equal(t, "z", v)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v"))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

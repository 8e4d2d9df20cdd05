package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	clock := now
	c, err := NewMemoryCache(10)
	require.NoError(t, err)
	c.WithClock(func() time.Time { return clock })

	require.NoError(t, c.Set(ctx, "feed:ranked:7d", []byte("v1"), time.Minute))

	got, ok := c.Get(ctx, "feed:ranked:7d")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	clock = clock.Add(59 * time.Second)
	_, ok = c.Get(ctx, "feed:ranked:7d")
	assert.True(t, ok)

	clock = clock.Add(time.Second)
	_, ok = c.Get(ctx, "feed:ranked:7d")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheEvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "a"))
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client, "babel:")

	_, ok := c.Get(ctx, "feed:ranked:7d")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "feed:ranked:7d", []byte(`[{"rank":1}]`), 5*time.Minute))
	assert.True(t, mr.Exists("babel:feed:ranked:7d"))

	got, ok := c.Get(ctx, "feed:ranked:7d")
	require.True(t, ok)
	assert.JSONEq(t, `[{"rank":1}]`, string(got))

	mr.FastForward(5 * time.Minute)
	_, ok = c.Get(ctx, "feed:ranked:7d")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCacheUnavailableIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	c := NewRedisCache(client, "")
	_, ok := c.Get(context.Background(), "anything")
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

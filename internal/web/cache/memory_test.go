package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(DefaultCacheConfig(), 0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache(DefaultCacheConfig(), 0)
	defer c.Close()

	_, err := c.Get(context.Background(), "absent")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache(CacheConfig{Prefix: "t:"}, 0)
	defer c.Close()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "key", []byte("v"), time.Minute))

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := c.Get(ctx, "key")
	assert.True(t, IsCacheMiss(err))

	c.removeExpired()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_NoExpiration(t *testing.T) {
	c := NewMemoryCache(CacheConfig{}, 0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("v"), 0))
	c.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	_, err := c.Get(ctx, "key")
	assert.NoError(t, err)
}

func TestMemoryCache_ValueIsCopied(t *testing.T) {
	c := NewMemoryCache(DefaultCacheConfig(), 0)
	defer c.Close()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "key", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(DefaultCacheConfig(), 0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, c.Delete(ctx, "a"))
	_, err := c.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_CancelledContext(t *testing.T) {
	c := NewMemoryCache(DefaultCacheConfig(), 0)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.Set(ctx, "key", nil, 0), context.Canceled)
}

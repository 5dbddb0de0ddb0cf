package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, c.Set("key1", "value1", time.Minute))

	value, found, err := c.Get("key1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", value)

	_, found, err = c.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Delete("key1"))
	_, found, err = c.Get("key1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheExpiration(t *testing.T) {
	c, err := NewMemoryCache(Config{
		DefaultTTL:      10 * time.Millisecond,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, c.Set("key1", "value1", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := c.Get("key1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache(t *testing.T) {
	server := miniredis.RunT(t)

	c, err := NewRedisCache(Config{
		Type:      "redis",
		RedisAddr: server.Addr(),
	})
	require.NoError(t, err)

	require.NoError(t, c.Set("key1", "value1", time.Minute))

	value, found, err := c.Get("key1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", value)

	_, found, err = c.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Clear())
	_, found, err = c.Get("key1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewCacheFallback(t *testing.T) {
	c, err := NewCache(Config{Type: "unknown"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "embed", GenerateCacheKey("embed"))
	assert.Equal(t, "embed:doc-1:3", GenerateCacheKey("embed", "doc-1", "3"))
}

func TestHashKey(t *testing.T) {
	key1 := HashKey("embed", "some query text")
	key2 := HashKey("embed", "some query text")
	key3 := HashKey("embed", "other text")

	assert.Equal(t, key1, key2)
	assert.NotEqual(t, key1, key3)
	assert.Contains(t, key1, "embed:")
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a string key-value store with per-entry TTL.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory creates a Cache from a configuration.
type Factory func(config Config) (Cache, error)

var registry = make(map[string]Factory)

// RegisterCache registers a cache implementation.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache creates a cache for the configured type. Unknown types fall
// back to the in-memory cache.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config holds cache settings.
type Config struct {
	// Type selects the implementation: "memory" or "redis".
	Type string
	// RedisAddr is the Redis server address (redis only).
	RedisAddr string
	// RedisPassword is the Redis password (redis only).
	RedisPassword string
	// RedisDB is the Redis database number (redis only).
	RedisDB int
	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration
	// CleanupInterval controls expired-entry sweeps (memory only).
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour * 24,
		CleanupInterval: time.Minute * 10,
	}
}

// GenerateCacheKey joins a prefix and parts into a stable cache key.
func GenerateCacheKey(prefix string, parts ...string) string {
	key := prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// HashKey returns a stable key for arbitrary content, such as the text
// of an embedding query.
func HashKey(prefix, content string) string {
	sum := sha256.Sum256([]byte(content))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

package cache

import (
	"context"
	"time"

	"github.com/wonny/idxscreen/pkg/redis"
)

// RedisStore adapts pkg/redis.Cache to Store. Expiry is Redis' native TTL.
type RedisStore struct {
	cache *redis.Cache
}

// NewRedisStore wraps a redis cache helper
func NewRedisStore(cache *redis.Cache) *RedisStore {
	return &RedisStore{cache: cache}
}

// Get returns the payload if Redis still holds it
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.cache.Get(ctx, key)
}

// Set stores with native TTL
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.cache.Set(ctx, key, value, ttl)
}

// Delete removes a key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}

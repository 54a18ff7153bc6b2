package cache

import (
	"context"
	"time"
)

// Store is a time-boxed key/value store for upstream payloads
// ⭐ SSOT: 모든 upstream 호출은 Store 를 거쳐 캐시됨
type Store interface {
	// Get returns the payload, or ok=false when the key was never set or has expired
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock abstracts time for expiry checks
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// Stats is a point-in-time view of a memory store
type Stats struct {
	TotalCount   int `json:"total_count"`
	ExpiredCount int `json:"expired_count"`
}

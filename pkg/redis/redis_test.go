package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/idxscreen/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := YahooRateLimit(5)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)

	assert.NoError(t, limiter.Bind(cfg).Wait(context.Background()))
}

func TestYahooRateLimit(t *testing.T) {
	tests := []struct {
		perSecond float64
		want      int
	}{
		{5, 5},
		{2.7, 2},
		{0.5, 1},
		{0, 1},
	}

	for _, tt := range tests {
		cfg := YahooRateLimit(tt.perSecond)
		assert.Equal(t, tt.want, cfg.Limit)
		assert.Equal(t, time.Second, cfg.Window)
		assert.Equal(t, "yahoo", cfg.Key)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	require.NoError(t, cache.Set(ctx, "key", []byte(`"v"`), time.Minute))

	data, found, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeyPrefix(t *testing.T) {
	cache := NewCache(disabledClient(t), "idxscreen")
	assert.Equal(t, "idxscreen:cache:series:BBCA.JK:6mo:1d", cache.key("series:BBCA.JK:6mo:1d"))
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/idxscreen/pkg/logger"
)

// Loader implements cache-aside over a Store.
//
// By default concurrent misses on the same key each call the loader, so a
// slow upstream can be hit several times for one key. With coalescing enabled
// concurrent misses share a single in-flight load; the context of the first
// caller governs that load.
type Loader struct {
	store  Store
	group  *singleflight.Group
	logger *logger.Logger
}

// NewLoader creates a cache-aside loader
func NewLoader(store Store, coalesce bool, log *logger.Logger) *Loader {
	l := &Loader{
		store:  store,
		logger: log,
	}
	if coalesce {
		l.group = &singleflight.Group{}
	}
	return l
}

// Fetch returns the cached value for key, or calls load and caches its result for ttl.
// Load errors are returned and never cached. Cache backend failures are logged and
// treated as misses.
func Fetch[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, l, key); ok {
		return v, nil
	}

	if l.group == nil {
		return loadAndStore(ctx, l, key, ttl, load)
	}

	res, err, shared := l.group.Do(key, func() (interface{}, error) {
		return loadAndStore(ctx, l, key, ttl, load)
	})
	if shared {
		l.logger.WithField("key", key).Debug("Coalesced cache miss")
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func lookup[T any](ctx context.Context, l *Loader, key string) (T, bool) {
	var v T

	data, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return v, false
	}
	if !ok {
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("Cache entry undecodable, refetching")
		return v, false
	}
	return v, true
}

func loadAndStore[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("Cache encode failed")
		return v, nil
	}
	if err := l.store.Set(ctx, key, data, ttl); err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return v, nil
}

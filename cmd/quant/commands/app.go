package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/idxscreen/internal/archive"
	"github.com/wonny/idxscreen/internal/cache"
	"github.com/wonny/idxscreen/internal/depth"
	"github.com/wonny/idxscreen/internal/external/yahoo"
	"github.com/wonny/idxscreen/internal/indicator"
	"github.com/wonny/idxscreen/internal/marketdata"
	"github.com/wonny/idxscreen/internal/pipeline"
	"github.com/wonny/idxscreen/internal/strategyconfig"
	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/database"
	"github.com/wonny/idxscreen/pkg/httputil"
	"github.com/wonny/idxscreen/pkg/logger"
	"github.com/wonny/idxscreen/pkg/redis"
)

const (
	cachePrefix     = "idxscreen:cache:"
	ratelimitPrefix = "idxscreen:ratelimit:"
	retryDelay      = 500 * time.Millisecond
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB // nil when DATABASE_URL is empty
	redis   *redis.Client
	memory  *cache.MemoryStore // nil when the redis backend is used
	gateway *marketdata.Gateway
	service *pipeline.Service
}

// newApp wires config, logger, storage, upstream clients and the pipeline service
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	// 1. Optional price archive
	var priceArchive *archive.Repository
	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Debug("Database not configured, archive disabled")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.db = db
		priceArchive = archive.NewRepository(db.Pool)
		if err := priceArchive.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure archive schema: %w", err)
		}
		log.Info("Connected to database")
	}

	// 2. Redis (no-op client when disabled)
	rdb, err := redis.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb

	// 3. Upstream HTTP client
	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Yahoo.Timeout)
	if cfg.Yahoo.MaxRetries > 0 {
		httpClient = httpClient.WithRetry(cfg.Yahoo.MaxRetries, retryDelay)
	} else {
		httpClient = httpClient.DisableRetry()
	}
	switch {
	case cfg.Yahoo.RateLimit <= 0:
	case rdb.Enabled():
		// 여러 프로세스가 같은 upstream 한도를 공유
		limiter := redis.NewRateLimiter(rdb, ratelimitPrefix)
		httpClient = httpClient.WithLimiter(limiter.Bind(redis.YahooRateLimit(cfg.Yahoo.RateLimit)))
	default:
		httpClient = httpClient.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Yahoo.RateLimit), cfg.Yahoo.RateBurst))
	}
	provider := yahoo.NewClient(httpClient, cfg, log)

	// 4. Cache
	var store cache.Store
	if cfg.Cache.Backend == "redis" {
		store = cache.NewRedisStore(redis.NewCache(rdb, cachePrefix))
	} else {
		a.memory = cache.NewMemoryStore(nil, log)
		store = a.memory
	}
	loader := cache.NewLoader(store, cfg.Cache.Coalesce, log)

	// 5. Market data gateway + service
	a.gateway = marketdata.NewGateway(provider, loader, cfg, log)
	if priceArchive != nil {
		a.gateway = a.gateway.WithArchive(priceArchive)
	}

	strategies, err := loadStrategies(cfg.Screening.StrategiesFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	for _, w := range strategyconfig.Warn(strategies) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a.service = pipeline.NewService(a.gateway, indicator.NewEngine(log), depth.NewSeededGenerator(), loader, cfg, log).
		WithStrategies(strategies)
	if cfg.Depth.PageURL != "" {
		scraper := depth.NewPageScraper(httpClient, cfg.Depth.PageURL, cfg.Depth.PageSource, log)
		a.service = a.service.WithDepthSource(scraper)
	}

	log.WithFields(map[string]interface{}{
		"env":           cfg.Env,
		"cache_backend": cfg.Cache.Backend,
		"archive":       a.db != nil,
		"redis":         rdb.Enabled(),
		"depth_page":    cfg.Depth.PageURL != "",
	}).Debug("Application wired")

	return a, nil
}

// loadStrategies reads the strategy file, or the built-in set when path is empty
func loadStrategies(path string) (*strategyconfig.Config, error) {
	if path == "" {
		return strategyconfig.Default()
	}
	cfg, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategies %s: %w", path, err)
	}
	return cfg, nil
}

// Close releases database and redis connections
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

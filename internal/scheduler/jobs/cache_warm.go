package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/pkg/logger"
)

// Warmer is the gateway surface the warm-up job drives
type Warmer interface {
	FetchSeries(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error)
	FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error)
}

// CacheWarmJob prefetches series and quotes so the first request of the day hits the cache
type CacheWarmJob struct {
	warmer   Warmer
	symbols  []string
	rng      string
	interval string
	schedule string
	logger   *logger.Logger
}

// NewCacheWarmJob creates a warm-up job for symbols
func NewCacheWarmJob(warmer Warmer, symbols []string, rng, interval, schedule string, log *logger.Logger) *CacheWarmJob {
	return &CacheWarmJob{
		warmer:   warmer,
		symbols:  symbols,
		rng:      rng,
		interval: interval,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheWarmJob) Name() string {
	return "cache-warm"
}

// Schedule returns the cron schedule
func (j *CacheWarmJob) Schedule() string {
	return j.schedule
}

// Run fetches every symbol; it fails only when nothing could be warmed
func (j *CacheWarmJob) Run(ctx context.Context) error {
	if len(j.symbols) == 0 {
		j.logger.Debug("No symbols to warm")
		return nil
	}

	var errs []error
	warmed := 0
	for _, sym := range j.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := j.warmer.FetchSeries(ctx, sym, j.rng, j.interval); err != nil {
			errs = append(errs, err)
			continue
		}
		warmed++
	}

	if _, err := j.warmer.FetchQuotes(ctx, j.symbols); err != nil {
		errs = append(errs, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"warmed":  warmed,
		"errors":  len(errs),
	}).Info("Cache warm-up completed")

	if warmed == 0 {
		return fmt.Errorf("cache warm-up failed for all %d symbols: %w", len(j.symbols), errors.Join(errs...))
	}
	return nil
}

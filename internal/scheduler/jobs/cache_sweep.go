package jobs

import (
	"context"

	"github.com/wonny/idxscreen/pkg/logger"
)

// Purger drops expired cache entries
type Purger interface {
	Purge() int
}

// CacheSweepJob purges expired entries from the in-memory cache
type CacheSweepJob struct {
	cache    Purger
	schedule string
	logger   *logger.Logger
}

// NewCacheSweepJob creates a new cache sweep job
func NewCacheSweepJob(cache Purger, schedule string, log *logger.Logger) *CacheSweepJob {
	return &CacheSweepJob{
		cache:    cache,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string {
	return "cache-sweep"
}

// Schedule returns the cron schedule
func (j *CacheSweepJob) Schedule() string {
	return j.schedule
}

// Run executes the cache sweep
func (j *CacheSweepJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache sweep")

	count := j.cache.Purge()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache sweep completed")
	}

	return nil
}

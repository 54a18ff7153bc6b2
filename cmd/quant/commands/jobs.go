package commands

import (
	"fmt"

	"github.com/wonny/idxscreen/internal/scheduler"
	"github.com/wonny/idxscreen/internal/scheduler/jobs"
)

// newScheduler registers the cache jobs that apply to the current config:
// cache-sweep only for the memory backend, cache-warm only with WARM_SYMBOLS set
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.DefaultOptions())

	if a.memory != nil {
		sweep := jobs.NewCacheSweepJob(a.memory, a.cfg.Scheduler.SweepSchedule, a.log)
		if err := sched.AddJob(sweep); err != nil {
			return nil, fmt.Errorf("add %s job: %w", sweep.Name(), err)
		}
	}

	if len(a.cfg.Scheduler.WarmSymbols) > 0 {
		warm := jobs.NewCacheWarmJob(
			a.gateway,
			a.cfg.Scheduler.WarmSymbols,
			a.cfg.Market.DefaultRange,
			a.cfg.Market.DefaultInterval,
			a.cfg.Scheduler.WarmSchedule,
			a.log,
		)
		if err := sched.AddJob(warm); err != nil {
			return nil, fmt.Errorf("add %s job: %w", warm.Name(), err)
		}
	}

	return sched, nil
}

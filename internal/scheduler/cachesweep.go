package scheduler

import (
	"context"

	"github.com/rs/zerolog"
)

// CacheSweepTaskID identifies the expired-response sweep.
const CacheSweepTaskID = "cache-sweep"

// Sweeper removes expired cache entries.
type Sweeper interface {
	SweepCache(ctx context.Context) (int64, error)
}

// RegisterCacheSweepTask schedules sweeper on cron.
func RegisterCacheSweepTask(s *Scheduler, sweeper Sweeper, cron string, logger zerolog.Logger) error {
	return s.RegisterTask(TaskConfig{
		ID:          CacheSweepTaskID,
		Name:        "Cache Sweep",
		Description: "Deletes cached upstream responses older than the cache TTL",
		Cron:        cron,
		Func: func(ctx context.Context) error {
			n, err := sweeper.SweepCache(ctx)
			if err != nil {
				return err
			}
			logger.Info().Int64("removed", n).Msg("Swept response cache")
			return nil
		},
	})
}

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/soratui/internal/api"
	"github.com/five82/soratui/internal/logging"
)

const defaultPollInterval = 2 * time.Second

// StatusClient is the part of the API WatchJob needs.
type StatusClient interface {
	GetStatus(ctx context.Context, id string) (api.Job, error)
}

// WatchOptions configure WatchJob.
type WatchOptions struct {
	Interval time.Duration // zero uses 2s
	Logger   *slog.Logger  // nil discards
	OnStatus func(api.Job) // called for every observation, terminal included
}

// WatchJob polls an existing job at a fixed cadence until it reaches a
// terminal status and returns the final observation. The first check runs
// immediately. Any request error ends the watch.
func WatchJob(ctx context.Context, client StatusClient, id string, opts WatchOptions) (api.Job, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for checks := 1; ; checks++ {
		job, err := client.GetStatus(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return api.Job{}, ctx.Err()
			}
			logger.Warn("status watch failed", "job_id", id, "checks", checks, "error", err)
			return api.Job{}, err
		}
		logger.Debug("status observed", "job_id", id, "status", job.Status, "checks", checks)
		if opts.OnStatus != nil {
			opts.OnStatus(job)
		}
		if job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return api.Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

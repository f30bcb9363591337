package service

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// Reaper periodically fails runs left unfinished by an instance that went away.
type Reaper struct {
	screening *ScreeningService
	interval  time.Duration
	staleAge  time.Duration
}

func NewReaper(screening *ScreeningService, interval, staleAge time.Duration) *Reaper {
	return &Reaper{
		screening: screening,
		interval:  interval,
		staleAge:  staleAge,
	}
}

// Run blocks until ctx is done. A sweep is made immediately on start.
func (r *Reaper) Run(ctx context.Context) {
	r.sweep(ctx)

	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: r.interval / 10, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	n, err := r.screening.ReapStaleRuns(ctx, r.staleAge)
	if err != nil {
		zap.S().Named("reaper").Errorw("failed to reap stale runs", "error", err)
		return
	}
	if n > 0 {
		zap.S().Named("reaper").Infow("reaped stale runs", "count", n)
	}
}

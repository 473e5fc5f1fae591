package main

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"talaty/internal/platform/config"
)

// runJobs starts the expiry sweep and, when configured, the periodic full
// recalculation. The returned channel closes once both loops have stopped.
func runJobs(ctx context.Context, a *app, cfg config.JobsConfig, log *slog.Logger) <-chan struct{} {
	g, ctx := errgroup.WithContext(ctx)

	if cfg.ExpirySweepInterval > 0 {
		g.Go(func() error {
			every(ctx, cfg.ExpirySweepInterval, func(ctx context.Context) {
				if _, err := a.documents.SweepExpired(ctx); err != nil {
					log.ErrorContext(ctx, "expiry sweep failed", "error", err)
				}
			})
			return nil
		})
	}

	if cfg.RecalculateInterval > 0 {
		g.Go(func() error {
			every(ctx, cfg.RecalculateInterval, func(ctx context.Context) {
				results, err := a.scoring.RecalculateAll(ctx)
				if err != nil {
					log.ErrorContext(ctx, "periodic recalculation failed", "error", err)
					return
				}
				failed := 0
				for _, r := range results {
					if !r.Success {
						failed++
					}
				}
				log.InfoContext(ctx, "periodic recalculation finished", "total", len(results), "failed", failed)
			})
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	return done
}

// every runs fn on each tick until ctx is cancelled.
func every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

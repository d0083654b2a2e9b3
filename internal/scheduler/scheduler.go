package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Loop runs cycleFn immediately, then again every interval, until ctx is
// done. Returns only when ctx is done or the arguments are invalid.
func Loop(ctx context.Context, interval time.Duration, cycleFn func(context.Context)) error {
	if interval <= 0 {
		return errors.New("interval must be > 0")
	}
	if cycleFn == nil {
		return errors.New("cycleFn must not be nil")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "interval", interval.String())

	safeCycle(ctx, cycleFn)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping")
			return nil
		case <-ticker.C:
			safeCycle(ctx, cycleFn)
		}
	}
}

func safeCycle(ctx context.Context, cycleFn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cycle panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	cycleFn(ctx)
	slog.Info("cycle completed", "duration_ms", time.Since(start).Milliseconds())
}

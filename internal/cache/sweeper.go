package cache

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the background maintenance pass runs.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper drives the coordinator's periodic sweep.
type Sweeper struct {
	coordinator *Coordinator
	interval    time.Duration
	logger      *slog.Logger
}

// NewSweeper prepares a background maintenance loop. A non-positive interval
// falls back to the default.
func NewSweeper(coordinator *Coordinator, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		coordinator: coordinator,
		interval:    interval,
		logger:      logger.With(slog.String("component", "cache_sweeper")),
	}
}

// Run sweeps on a fixed interval until the context is cancelled. It blocks,
// so callers start it on its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.coordinator.Sweep(ctx)
		}
	}
}

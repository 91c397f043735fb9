package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Expirer is implemented by *store.Store
type Expirer interface {
	ClearExpiredStories(now time.Time) int
}

// Sweeper periodically drops stories that left the expiry window, so the UI
// stops showing them without waiting for the next fetch.
type Sweeper struct {
	store    Expirer
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func New(store Expirer, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces time.Now as the source of "now".
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Start sweeps once immediately, then every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper started", "interval", s.interval.String())

	s.Sweep()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper shutting down")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one expiry pass and returns the number of stories removed.
func (s *Sweeper) Sweep() int {
	startTime := time.Now()

	removed := s.store.ClearExpiredStories(s.now())

	duration := time.Since(startTime)
	s.logger.Info("Completed expired stories cleanup",
		"stories_removed", removed,
		"duration_ms", duration.Milliseconds())

	return removed
}

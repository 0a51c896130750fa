package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/mistkv/mistkv-go/internal/telemetry/metric"
)

const (
	// DefaultSweepInterval is the period between sweep passes.
	DefaultSweepInterval = 50 * time.Millisecond

	// minSweepInterval rejects configurations that would degrade the
	// sweeper into a lock-thrashing busy loop.
	minSweepInterval = time.Millisecond
)

// Sweeper periodically purges expired entries from a Store.
//
// It runs for the lifetime of the server; each tick performs one
// atomic sweep pass. The period is always bounded and non-zero.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	metrics  *metric.Registry
}

// NewSweeper creates a sweeper over store. Intervals below the minimum
// are replaced by the default. logger and metrics may be nil.
func NewSweeper(store *Store, interval time.Duration, logger *slog.Logger, metrics *metric.Registry) *Sweeper {
	if interval < minSweepInterval {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// Interval returns the effective sweep period.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Run sweeps on a fixed period until ctx is canceled. It blocks and is
// meant to be started in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			removed := s.store.Sweep()
			if s.metrics != nil {
				s.metrics.SweepPasses.Inc()
				s.metrics.KeysExpired.Add(float64(removed))
			}
			if removed > 0 {
				s.logger.Debug("sweep pass removed expired entries", "removed", removed)
			}
		}
	}
}

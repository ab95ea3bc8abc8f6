// Package scheduler fires scheduled ingestion on a recurring, replaceable period.
package scheduler

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/ingest"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

// MinInterval is the shortest allowed period.
const MinInterval = 10 * time.Minute

// Runner runs one ingestion.
type Runner interface {
	Run(ctx context.Context, reason model.Reason) (ingest.Summary, error)
}

// MaxInterval is the longest representable period.
const MaxInterval = time.Duration(math.MaxInt64)

// Interval converts an hour count to a period, clamped to MinInterval
// below and MaxInterval above.
func Interval(hours float64) time.Duration {
	ns := hours * float64(time.Hour)
	switch {
	case math.IsNaN(ns) || ns < float64(MinInterval):
		return MinInterval
	case ns >= float64(MaxInterval):
		return MaxInterval
	}
	return time.Duration(ns)
}

// Scheduler triggers the runner every period until its context ends.
type Scheduler struct {
	runner Runner
	log    *slog.Logger

	mu     sync.Mutex
	period time.Duration
	reset  chan struct{}
}

// New creates a Scheduler using the default update interval.
func New(runner Runner, log *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		log:    log,
		period: Interval(model.DefaultSettings().UpdateIntervalHours),
		reset:  make(chan struct{}, 1),
	}
}

// Schedule replaces the current period. The next run happens one full
// period from now.
func (s *Scheduler) Schedule(hours float64) {
	s.setPeriod(Interval(hours))
}

// Period returns the current period.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

func (s *Scheduler) setPeriod(d time.Duration) {
	s.mu.Lock()
	s.period = d
	s.mu.Unlock()

	select {
	case s.reset <- struct{}{}:
	default:
	}
	s.log.Info("ingestion scheduled", "period", d)
}

// Run blocks until ctx is cancelled, running scheduled ingestion each period.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.Period())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.reset:
			timer.Reset(s.Period())
		case <-timer.C:
			s.runOnce(ctx)
			timer.Reset(s.Period())
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	sum, err := s.runner.Run(ctx, model.ReasonAlarm)
	if err != nil {
		s.log.Error("scheduled ingestion", "error", err)
		return
	}
	s.log.Debug("scheduled ingestion finished", "added", sum.Added, "total", sum.Total)
}

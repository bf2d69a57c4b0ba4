package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckFunc runs one scheduled resource check.
type CheckFunc func(ctx context.Context)

// Scheduler runs a check once at start and then at a fixed interval.
type Scheduler struct {
	check      CheckFunc
	logger     *zap.Logger
	mu         sync.Mutex
	interval   time.Duration
	intervalCh chan time.Duration // signals the loop to reset the ticker
}

// NewScheduler creates a scheduler for check.
func NewScheduler(check CheckFunc, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		check:      check,
		logger:     logger,
		interval:   interval,
		intervalCh: make(chan time.Duration, 1),
	}
}

// Run runs the check loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	interval := s.interval
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately
	s.runCheck(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-s.intervalCh:
			ticker.Reset(d)
		case <-ticker.C:
			s.runCheck(ctx)
		}
	}
}

// Interval returns the current tick period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// UpdateInterval changes the tick period at runtime.
func (s *Scheduler) UpdateInterval(d time.Duration) {
	if d < time.Second {
		d = time.Second
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()

	// Drop a pending update the loop has not consumed yet.
	select {
	case <-s.intervalCh:
	default:
	}
	select {
	case s.intervalCh <- d:
	default:
	}
	s.logger.Info("interval updated", zap.Duration("interval", d))
}

func (s *Scheduler) runCheck(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("scheduled check panicked", zap.Any("panic", p))
		}
	}()
	s.check(ctx)
}

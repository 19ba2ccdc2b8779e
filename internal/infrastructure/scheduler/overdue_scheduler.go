package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrInvalidConfig       = errors.New("scheduler: invalid config")
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
)

// OverdueMarker moves outstanding invoices past their due date to overdue
type OverdueMarker interface {
	MarkOverdueInvoices(ctx context.Context, now time.Time) (int, error)
}

// OverdueSchedulerConfig holds configuration for the overdue sweep
type OverdueSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval between two sweeps
	Interval time.Duration

	// RunTimeout is the maximum time for a single sweep
	RunTimeout time.Duration

	// RunOnStart triggers a sweep immediately after Start
	RunOnStart bool
}

// DefaultOverdueSchedulerConfig returns default configuration
func DefaultOverdueSchedulerConfig() OverdueSchedulerConfig {
	return OverdueSchedulerConfig{
		Enabled:    true,
		Interval:   time.Hour,
		RunTimeout: 5 * time.Minute,
		RunOnStart: true,
	}
}

// Validate checks the configuration
func (c OverdueSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// OverdueRunStats describes the last sweep
type OverdueRunStats struct {
	Runs        int64
	LastRunAt   time.Time
	LastMarked  int
	TotalMarked int64
	LastError   error
}

// OverdueScheduler runs the overdue sweep on a ticker and on demand.
// Sweeps never overlap; a trigger during a sweep queues at most one more.
type OverdueScheduler struct {
	marker  OverdueMarker
	logger  *zap.Logger
	config  OverdueSchedulerConfig
	now     func() time.Time
	trigger chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc // nil once Stop was called
	done   chan struct{}      // nil once the loop has exited
	stats  OverdueRunStats
}

func NewOverdueScheduler(marker OverdueMarker, logger *zap.Logger, config OverdueSchedulerConfig) *OverdueScheduler {
	return &OverdueScheduler{
		marker:  marker,
		logger:  logger.Named("overdue_scheduler"),
		config:  config,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
}

// Start launches the sweep loop. It is a no-op when the scheduler is
// disabled or already running. A loop still finishing a sweep after a timed
// out Stop is waited for, at most until ctx is done.
func (s *OverdueScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Overdue scheduler is disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		return err
	}

	for {
		s.mu.Lock()
		if s.cancel != nil {
			s.mu.Unlock()
			return nil
		}
		previous := s.done
		if previous == nil {
			break
		}
		s.mu.Unlock()

		select {
		case <-previous:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	defer s.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.loop(loopCtx, done)

	s.logger.Info("Overdue scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, at most until ctx
// is done. After a timeout the loop keeps draining; a later Stop or Start
// waits for it.
func (s *OverdueScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	if cancel != nil {
		cancel()
	}
	select {
	case <-done:
		s.logger.Info("Overdue scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow requests an immediate sweep
func (s *OverdueScheduler) TriggerNow() error {
	if !s.IsRunning() {
		return ErrSchedulerNotRunning
	}
	select {
	case s.trigger <- struct{}{}:
	default: // one is already queued
	}
	return nil
}

// IsRunning reports whether the loop is active and accepting triggers
func (s *OverdueScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stats returns a copy of the run statistics
func (s *OverdueScheduler) Stats() OverdueRunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *OverdueScheduler) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			// the parent context may end the loop without a Stop
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		close(done)
	}()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *OverdueScheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := s.now()
	marked, err := s.marker.MarkOverdueInvoices(runCtx, start)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.LastRunAt = start
	s.stats.LastMarked = marked
	s.stats.TotalMarked += int64(marked)
	s.stats.LastError = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Overdue sweep failed", zap.Int("marked", marked), zap.Error(err))
		return
	}
	if marked > 0 {
		s.logger.Info("Overdue sweep completed",
			zap.Int("marked", marked),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

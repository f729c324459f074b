package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/core/ports/driving"
	"github.com/harborline/docsift/internal/logger"
)

// Ensure IntervalScheduler implements the interface.
var _ driving.Scheduler = (*IntervalScheduler)(nil)

// ErrSchedulerStopped is returned by TriggerNow after Stop.
var ErrSchedulerStopped = errors.New("scheduler stopped")

// IntervalScheduler drives recurring pipeline runs. A run becomes due
// interval after the START of the previous run, so slow runs do not
// push the cadence later and later. Manual triggers and watch hints
// share one pending slot: however many arrive while a run is active,
// at most one extra run follows.
type IntervalScheduler struct {
	pipeline driving.Pipeline
	state    driven.StateStore
	interval time.Duration

	watcher driven.WatchingSource

	trigger chan struct{}
	results chan domain.SyncRunResult
	stop    chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	lastRun time.Time
}

// SchedulerOption configures an IntervalScheduler.
type SchedulerOption func(*IntervalScheduler)

// WithWatcher subscribes the scheduler to source change hints. Each
// hint is treated like a TriggerNow.
func WithWatcher(w driven.WatchingSource) SchedulerOption {
	return func(s *IntervalScheduler) {
		s.watcher = w
	}
}

// NewIntervalScheduler creates a scheduler for the given pipeline.
func NewIntervalScheduler(pipeline driving.Pipeline, state driven.StateStore, interval time.Duration, opts ...SchedulerOption) *IntervalScheduler {
	if interval <= 0 {
		interval = domain.DefaultSyncInterval
	}
	s := &IntervalScheduler{
		pipeline: pipeline,
		state:    state,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		results:  make(chan domain.SyncRunResult, 16),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the scheduler loop until the context is cancelled or
// Stop is called. The last run time is restored from history, so a
// restart does not force an immediate run when one is not yet due; an
// empty history makes the first run due immediately.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.wg.Add(1)
	defer s.wg.Done()

	s.restoreLastRun(ctx)

	var watchCh <-chan struct{}
	if s.watcher != nil {
		ch, err := s.watcher.Watch(ctx)
		if err != nil {
			logger.Warn("source watching disabled: %v", err)
		} else {
			watchCh = ch
		}
	}

	timer := time.NewTimer(s.untilDue())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case <-timer.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		case <-watchCh:
			s.runOnce(ctx)
		}
		timer.Reset(s.untilDue())
	}
}

// Stop shuts the loop down and waits for an active run to finish.
func (s *IntervalScheduler) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}

// TriggerNow requests an immediate run. Calls while a run is active
// coalesce into a single pending run.
func (s *IntervalScheduler) TriggerNow() error {
	select {
	case <-s.stop:
		return ErrSchedulerStopped
	default:
	}
	select {
	case s.trigger <- struct{}{}:
	default: // a run is already pending
	}
	return nil
}

// Results streams one result per completed run. Results are dropped
// if nobody is receiving; the run history is the durable record.
func (s *IntervalScheduler) Results() <-chan domain.SyncRunResult {
	return s.results
}

func (s *IntervalScheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	result, err := s.pipeline.RunOnce(ctx)
	if errors.Is(err, domain.ErrSyncInProgress) {
		return
	}
	if err != nil {
		logger.Warn("scheduled run failed: %v", err)
	}
	if result == nil {
		return
	}

	select {
	case s.results <- *result:
	default:
	}
}

func (s *IntervalScheduler) untilDue() time.Duration {
	s.mu.Lock()
	last := s.lastRun
	s.mu.Unlock()

	if last.IsZero() {
		return 0
	}
	d := time.Until(last.Add(s.interval))
	if d < 0 {
		return 0
	}
	return d
}

// restoreLastRun seeds the timer from persisted history so restarts
// keep the cadence instead of re-running on every boot.
func (s *IntervalScheduler) restoreLastRun(ctx context.Context) {
	history, err := s.state.RunHistory(ctx, 1)
	if err != nil {
		logger.Warn("could not restore run history: %v", err)
		return
	}
	if len(history) > 0 {
		s.mu.Lock()
		s.lastRun = history[0].Started
		s.mu.Unlock()
	}
}

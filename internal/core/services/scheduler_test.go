package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driving"
)

// fakePipeline counts runs and optionally simulates slow ones.
type fakePipeline struct {
	mu    sync.Mutex
	runs  int
	delay time.Duration
}

func (f *fakePipeline) RunOnce(ctx context.Context) (*domain.SyncRunResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	return &domain.SyncRunResult{ID: uuid.New().String(), Started: time.Now(), Status: domain.RunSuccess}, nil
}

func (f *fakePipeline) Status() driving.PipelineStatus { return driving.PipelineStatus{} }

func (f *fakePipeline) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func startScheduler(t *testing.T, s *IntervalScheduler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
		cancel()
		<-done
	})
}

func TestScheduler_FirstRunImmediatelyDue(t *testing.T) {
	p := &fakePipeline{}
	s := NewIntervalScheduler(p, newMockStateStore(), time.Hour)

	startScheduler(t, s)

	require.Eventually(t, func() bool { return p.runCount() == 1 },
		time.Second, time.Millisecond)
}

func TestScheduler_RestoredHistoryDelaysFirstRun(t *testing.T) {
	state := newMockStateStore()
	state.history = []domain.SyncRunResult{{ID: "prev", Started: time.Now()}}
	p := &fakePipeline{}
	s := NewIntervalScheduler(p, state, time.Hour)

	startScheduler(t, s)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, p.runCount(), "a recent prior run must delay the next one")
}

func TestScheduler_TriggerNow(t *testing.T) {
	state := newMockStateStore()
	state.history = []domain.SyncRunResult{{ID: "prev", Started: time.Now()}}
	p := &fakePipeline{}
	s := NewIntervalScheduler(p, state, time.Hour)

	startScheduler(t, s)

	require.NoError(t, s.TriggerNow())
	require.Eventually(t, func() bool { return p.runCount() == 1 },
		time.Second, time.Millisecond)
}

func TestScheduler_TriggersCoalesce(t *testing.T) {
	p := &fakePipeline{delay: 50 * time.Millisecond}
	s := NewIntervalScheduler(p, newMockStateStore(), time.Hour)

	startScheduler(t, s)

	// Burst of triggers while the first run is still active.
	for i := 0; i < 5; i++ {
		require.NoError(t, s.TriggerNow())
	}

	require.Eventually(t, func() bool { return p.runCount() >= 1 },
		time.Second, time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.LessOrEqual(t, p.runCount(), 2, "a trigger burst coalesces into at most one pending run")
}

func TestScheduler_IntervalCadence(t *testing.T) {
	p := &fakePipeline{}
	s := NewIntervalScheduler(p, newMockStateStore(), 20*time.Millisecond)

	startScheduler(t, s)

	require.Eventually(t, func() bool { return p.runCount() >= 3 },
		time.Second, time.Millisecond)
}

func TestScheduler_ResultsStream(t *testing.T) {
	p := &fakePipeline{}
	s := NewIntervalScheduler(p, newMockStateStore(), time.Hour)

	startScheduler(t, s)

	select {
	case result := <-s.Results():
		assert.Equal(t, domain.RunSuccess, result.Status)
		assert.NotEmpty(t, result.ID)
	case <-time.After(time.Second):
		t.Fatal("no result received")
	}
}

func TestScheduler_TriggerAfterStop(t *testing.T) {
	s := NewIntervalScheduler(&fakePipeline{}, newMockStateStore(), time.Hour)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.TriggerNow(), ErrSchedulerStopped)
}

func TestScheduler_UntilDueBoundary(t *testing.T) {
	s := NewIntervalScheduler(&fakePipeline{}, newMockStateStore(), time.Hour)

	// No prior run: due immediately.
	assert.Equal(t, time.Duration(0), s.untilDue())

	// 30 minutes into an hourly interval: roughly 30 minutes left.
	s.mu.Lock()
	s.lastRun = time.Now().Add(-30 * time.Minute)
	s.mu.Unlock()
	d := s.untilDue()
	assert.Greater(t, d, 29*time.Minute)
	assert.LessOrEqual(t, d, 30*time.Minute)

	// Past the interval: due immediately, never negative.
	s.mu.Lock()
	s.lastRun = time.Now().Add(-61 * time.Minute)
	s.mu.Unlock()
	assert.Equal(t, time.Duration(0), s.untilDue())
}

func TestScheduler_DefaultInterval(t *testing.T) {
	s := NewIntervalScheduler(&fakePipeline{}, newMockStateStore(), 0)
	assert.Equal(t, domain.DefaultSyncInterval, s.interval)
}

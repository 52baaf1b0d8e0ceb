package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"grievance/models"
	"grievance/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepRecorder struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (r *sweepRecorder) sweep(ctx context.Context, now time.Time) (models.SweepSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, now)
	return models.SweepSummary{RunID: "run", SweepTime: now}, r.err
}

func (r *sweepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestEscalationScanner_FiresAtTopOfHour(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	clock := utils.NewManualClock(start)
	rec := &sweepRecorder{}

	s, err := NewEscalationScanner(rec.sweep, clock, "", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), s.NextRun())

	ctx := context.Background()
	assert.False(t, s.RunDue(ctx))

	clock.Set(time.Date(2024, 3, 1, 9, 59, 59, 0, time.UTC))
	assert.False(t, s.RunDue(ctx))

	clock.Set(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	assert.True(t, s.RunDue(ctx))
	assert.False(t, s.RunDue(ctx), "same instant must not fire twice")
	assert.Equal(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), s.NextRun())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), rec.calls[0])
}

func TestEscalationScanner_MissedFiresCollapse(t *testing.T) {
	clock := utils.NewManualClock(time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC))
	rec := &sweepRecorder{}
	s, err := NewEscalationScanner(rec.sweep, clock, DefaultSchedule, false)
	require.NoError(t, err)

	clock.Set(time.Date(2024, 3, 1, 13, 30, 0, 0, time.UTC))
	assert.True(t, s.RunDue(context.Background()))
	assert.False(t, s.RunDue(context.Background()))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC), s.NextRun())
}

func TestEscalationScanner_SweepErrorDoesNotStopSchedule(t *testing.T) {
	clock := utils.NewManualClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &sweepRecorder{err: errors.New("db down")}
	s, err := NewEscalationScanner(rec.sweep, clock, DefaultSchedule, false)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.True(t, s.RunDue(context.Background()))
	clock.Advance(time.Hour)
	assert.True(t, s.RunDue(context.Background()))
	assert.Equal(t, 2, rec.count())
}

func TestEscalationScanner_RunNowKeepsSchedule(t *testing.T) {
	clock := utils.NewManualClock(time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC))
	rec := &sweepRecorder{}
	s, err := NewEscalationScanner(rec.sweep, clock, DefaultSchedule, false)
	require.NoError(t, err)
	next := s.NextRun()

	summary, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run", summary.RunID)
	assert.Equal(t, next, s.NextRun())
}

func TestEscalationScanner_InvalidSchedule(t *testing.T) {
	_, err := NewEscalationScanner(func(context.Context, time.Time) (models.SweepSummary, error) {
		return models.SweepSummary{}, nil
	}, nil, "every hour", false)
	assert.Error(t, err)
}

func TestEscalationScanner_StartStop(t *testing.T) {
	clock := utils.NewManualClock(time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC))
	rec := &sweepRecorder{}
	s, err := NewEscalationScanner(rec.sweep, clock, DefaultSchedule, true)
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, rec.count())
}

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schedBase = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestScheduler() *Scheduler {
	s := NewScheduler(nil, time.Second)
	s.now = func() time.Time { return schedBase }
	return s
}

func TestScheduleReturnsHandle(t *testing.T) {
	s := newTestScheduler()
	ctx := context.Background()

	h1, err := s.ScheduleMealReminder(ctx, "Meal 2", schedBase.Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, h1)

	h2, err := s.ScheduleWorkoutReminder(ctx, "w-1", "Pull day", schedBase.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, h2)
	assert.NotEqual(t, h1, h2)

	assert.Equal(t, 2, s.PendingCount())
}

func TestScheduleRejectsPastFireTime(t *testing.T) {
	s := newTestScheduler()

	h, err := s.ScheduleSupplementReminder(context.Background(), "Omega-3", schedBase.Add(-time.Minute), "2 caps")
	require.NoError(t, err)
	assert.Empty(t, h, "past fire times are skipped, not fired late")
	assert.Equal(t, 0, s.PendingCount())
}

func TestDispatchDueFiresAndDrops(t *testing.T) {
	s := newTestScheduler()
	ctx := context.Background()

	_, err := s.ScheduleMealReminder(ctx, "due soon", schedBase.Add(10*time.Minute))
	require.NoError(t, err)
	_, err = s.ScheduleCoachingSession(ctx, "s-1", "coach-4", schedBase.Add(3*time.Hour), false)
	require.NoError(t, err)
	require.Equal(t, 2, s.PendingCount())

	// Nothing is due yet.
	s.dispatchDue()
	assert.Equal(t, 2, s.PendingCount())

	// Advance past the first fire time only.
	s.now = func() time.Time { return schedBase.Add(11 * time.Minute) }
	s.dispatchDue()
	assert.Equal(t, 1, s.PendingCount())

	s.now = func() time.Time { return schedBase.Add(4 * time.Hour) }
	s.dispatchDue()
	assert.Equal(t, 0, s.PendingCount())
}

func TestCancelPreventsFiring(t *testing.T) {
	s := newTestScheduler()
	ctx := context.Background()

	h, err := s.ScheduleReminder(ctx, "ev-1", "Weigh-in", "Step on the scale", schedBase.Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, h)

	require.NoError(t, s.CancelNotification(ctx, h))
	assert.Equal(t, 0, s.PendingCount())

	// Canceling an unknown handle is a no-op, not an error.
	require.NoError(t, s.CancelNotification(ctx, "gone"))

	s.now = func() time.Time { return schedBase.Add(2 * time.Hour) }
	s.dispatchDue()
	assert.Equal(t, 0, s.PendingCount())
}

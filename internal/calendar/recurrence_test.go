package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcal/backend/internal/storage/models"
)

func recurringEvent(start time.Time, rule *models.RecurrenceRule) *models.Event {
	return &models.Event{
		Title:     "Morning cardio",
		Type:      models.EventWorkout,
		StartTime: start,
		EndTime:   start.Add(45 * time.Minute),
		Recurring: rule,
	}
}

func TestDailyExpansionThreeMonthHorizon(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	template, err := svc.AddEvent(ctx, recurringEvent(start, &models.RecurrenceRule{
		Frequency: models.FrequencyDaily,
	}))
	require.NoError(t, err)

	all := svc.Events()
	// Mar 3 through Jun 2 inclusive: 29 + 30 + 31 + 2 days, plus the template.
	require.Len(t, all, 93)

	seen := make(map[string]bool)
	prev := start
	for _, ev := range all {
		assert.False(t, seen[ev.ID])
		seen[ev.ID] = true

		assert.Equal(t, 45*time.Minute, ev.Duration())
		if ev.ID != template.ID {
			assert.Nil(t, ev.Recurring, "occurrences must not carry a rule")
			assert.Equal(t, 7, ev.StartTime.Hour())
			assert.Equal(t, 24*time.Hour, ev.StartTime.Sub(prev))
		}
		prev = ev.StartTime
	}

	last := all[len(all)-1]
	assert.Equal(t, time.Date(2026, 6, 2, 7, 0, 0, 0, time.UTC), last.StartTime)
}

func TestWeeklyExpansionOnSelectedDays(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Monday start, Mon/Wed/Fri rule through the end of March.
	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)
	_, err := svc.AddEvent(ctx, recurringEvent(start, &models.RecurrenceRule{
		Frequency:  models.FrequencyWeekly,
		DaysOfWeek: []int{1, 3, 5},
		EndDate:    &end,
	}))
	require.NoError(t, err)

	all := svc.Events()
	// Template plus 4 Mondays, 4 Wednesdays and 4 Fridays after Mar 2.
	require.Len(t, all, 13)

	for _, ev := range all[1:] {
		wd := ev.StartTime.Weekday()
		assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, wd)
		assert.True(t, ev.StartTime.After(start))
		assert.Equal(t, 18, ev.StartTime.Hour())
	}
	assert.Equal(t, time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC), all[1].StartTime)
}

func TestWeeklyWithoutDaysGeneratesNothing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddEvent(ctx, recurringEvent(baseTime.Add(time.Hour), &models.RecurrenceRule{
		Frequency: models.FrequencyWeekly,
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, svc.EventCount(), "only the template itself")
}

func TestMonthlyExpansionSkipsShortMonths(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Day 31 template: February and April have no day 31 and are skipped.
	start := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 31, 23, 0, 0, 0, time.UTC)
	_, err := svc.AddEvent(ctx, &models.Event{
		Title:     "Progress photos",
		Type:      models.EventMeal,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Recurring: &models.RecurrenceRule{Frequency: models.FrequencyMonthly, EndDate: &end},
	})
	require.NoError(t, err)

	all := svc.Events()
	require.Len(t, all, 3)
	assert.Equal(t, time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), all[1].StartTime)
	assert.Equal(t, time.Date(2026, 5, 31, 9, 0, 0, 0, time.UTC), all[2].StartTime)
}

func TestOccurrencesGetTheirOwnReminders(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	start := baseTime.Add(time.Hour)
	end := start.AddDate(0, 0, 3)
	_, err := svc.AddEvent(ctx, &models.Event{
		Title:     "Meal 1",
		Type:      models.EventMeal,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Reminder:  &models.Reminder{Enabled: true, MinutesBefore: 10},
		Recurring: &models.RecurrenceRule{Frequency: models.FrequencyDaily, EndDate: &end},
	})
	require.NoError(t, err)

	all := svc.Events()
	require.Len(t, all, 4)
	require.Len(t, notifier.scheduled, 4, "template and each occurrence schedule independently")

	handles := make(map[string]bool)
	for _, ev := range all {
		require.NotNil(t, ev.Reminder)
		require.NotEmpty(t, ev.Reminder.NotificationID)
		assert.False(t, handles[ev.Reminder.NotificationID], "handles must be distinct")
		handles[ev.Reminder.NotificationID] = true
	}
}

func TestOccurrencesIndependentOfTemplate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	start := baseTime.Add(time.Hour)
	end := start.AddDate(0, 0, 5)
	template, err := svc.AddEvent(ctx, recurringEvent(start, &models.RecurrenceRule{
		Frequency: models.FrequencyDaily,
		EndDate:   &end,
	}))
	require.NoError(t, err)
	require.Equal(t, 6, svc.EventCount())

	// Deleting the template leaves every generated occurrence alone.
	require.True(t, svc.DeleteEvent(ctx, template.ID))
	assert.Equal(t, 5, svc.EventCount())

	// Completing one occurrence leaves its siblings untouched.
	occ := svc.Events()[0]
	require.True(t, svc.MarkEventCompleted(ctx, occ.ID))
	assert.Len(t, svc.CompletedEvents(""), 1)
}

func TestOccurrenceWalkIsPure(t *testing.T) {
	start := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	template := recurringEvent(start, &models.RecurrenceRule{Frequency: models.FrequencyDaily})
	template.ID = "tmpl"

	first := occurrences(template)
	second := occurrences(template)
	require.Equal(t, len(first), len(second))
	assert.Nil(t, template.Recurring.EndDate, "template is not mutated")

	for _, occ := range first {
		assert.Empty(t, occ.ID, "ids are assigned by the add path, not expansion")
		assert.Equal(t, template.Duration(), occ.Duration())
	}
}

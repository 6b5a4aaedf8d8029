package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcal/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, RunMigrations(db))
	return db
}

func TestEventRepositoryRoundTrip(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	full := models.Event{
		ID:          "ev-1",
		Title:       "Morning cardio",
		Description: "Zone 2, 45 minutes",
		Type:        models.EventWorkout,
		StartTime:   start,
		EndTime:     start.Add(45 * time.Minute),
		Recurring: &models.RecurrenceRule{
			Frequency:  models.FrequencyWeekly,
			DaysOfWeek: []int{1, 3, 5},
			EndDate:    &end,
		},
		Reminder: &models.Reminder{Enabled: true, MinutesBefore: 15, NotificationID: "n-7"},
		Metadata: models.Metadata{models.MetaWorkoutID: "w-42"},
		Color:    "#22c55e",
		Completed: false,
		CreatedAt: start.Add(-time.Hour),
		UpdatedAt: start.Add(-time.Hour),
	}
	bare := models.Event{
		ID:        "ev-2",
		Title:     "Meal 4",
		Type:      models.EventMeal,
		StartTime: start.Add(5 * time.Hour),
		EndTime:   start.Add(6 * time.Hour),
		Completed: true,
		CreatedAt: start,
		UpdatedAt: start,
	}

	lastSync := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, []models.Event{full, bare}, lastSync))

	events, gotSync, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, gotSync.Equal(lastSync))

	got := events[0]
	assert.Equal(t, "ev-1", got.ID)
	assert.Equal(t, "Morning cardio", got.Title)
	assert.Equal(t, models.EventWorkout, got.Type)
	assert.True(t, got.StartTime.Equal(full.StartTime))
	assert.True(t, got.EndTime.Equal(full.EndTime))
	require.NotNil(t, got.Recurring)
	assert.Equal(t, models.FrequencyWeekly, got.Recurring.Frequency)
	assert.Equal(t, []int{1, 3, 5}, got.Recurring.DaysOfWeek)
	require.NotNil(t, got.Recurring.EndDate)
	assert.True(t, got.Recurring.EndDate.Equal(end))
	require.NotNil(t, got.Reminder)
	assert.Equal(t, "n-7", got.Reminder.NotificationID)
	assert.Equal(t, 15, got.Reminder.MinutesBefore)
	assert.Equal(t, "w-42", got.Metadata[models.MetaWorkoutID])
	assert.Equal(t, "#22c55e", got.Color)

	plain := events[1]
	assert.Nil(t, plain.Recurring)
	assert.Nil(t, plain.Reminder)
	assert.Nil(t, plain.Metadata)
	assert.True(t, plain.Completed)
}

func TestEventRepositorySaveReplaces(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func(id string) models.Event {
		return models.Event{
			ID: id, Title: id, Type: models.EventOther,
			StartTime: now, EndTime: now,
			CreatedAt: now, UpdatedAt: now,
		}
	}

	require.NoError(t, repo.Save(ctx, []models.Event{mk("a"), mk("b"), mk("c")}, now))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// The store mirrors the in-memory collection wholesale.
	require.NoError(t, repo.Save(ctx, []models.Event{mk("b")}, now))
	events, _, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].ID)

	require.NoError(t, repo.Save(ctx, nil, now))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEventRepositoryEmptyLoad(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))

	events, lastSync, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.True(t, lastSync.IsZero())
}

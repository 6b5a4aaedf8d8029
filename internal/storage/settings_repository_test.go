package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, SettingRetentionDays, "45"))
	value, ok, err := repo.Get(ctx, SettingRetentionDays)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "45", value)

	days, err := repo.RetentionDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, days)

	// Overwrite
	require.NoError(t, repo.Set(ctx, SettingRetentionDays, "60"))
	days, err = repo.RetentionDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, days)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "60", all[SettingRetentionDays])
}

func TestSettingsGetIntFallback(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))
	ctx := context.Background()

	days, err := repo.RetentionDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultRetentionDays, days)

	require.NoError(t, repo.Set(ctx, SettingRetentionDays, "not a number"))
	days, err = repo.RetentionDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultRetentionDays, days, "garbage falls back to the default")
}

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tguerin/timekeep/internal/repository"
	"github.com/tguerin/timekeep/internal/testutil"
)

func newTestSettings(t *testing.T) *Settings {
	t.Helper()
	return NewSettings(repository.NewSQLiteConfigRepo(testutil.NewTestDB(t)))
}

func TestSettings_SeededDefaults(t *testing.T) {
	s := newTestSettings(t)
	ctx := context.Background()

	assert.Equal(t, 7.5, s.MaxDailyHours(ctx))
	assert.Equal(t, 450.0, s.MaxDailyMinutes(ctx))
	assert.Equal(t, time.Hour, s.NotificationInterval(ctx))
	assert.True(t, s.IdleAlertEnabled(ctx))
	assert.Equal(t, 15*time.Minute, s.IdleAlertInterval(ctx))

	start, end := s.IdleAlertHours(ctx)
	assert.Equal(t, 8, start)
	assert.Equal(t, 18, end)
}

func TestSettings_SetOverrides(t *testing.T) {
	s := newTestSettings(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyMaxDailyHours, "8"))
	require.NoError(t, s.Set(ctx, KeyNotificationInterval, "30"))
	require.NoError(t, s.Set(ctx, KeyIdleAlertEnabled, "false"))

	assert.Equal(t, 8.0, s.MaxDailyHours(ctx))
	assert.Equal(t, 30*time.Minute, s.NotificationInterval(ctx))
	assert.False(t, s.IdleAlertEnabled(ctx))
}

func TestSettings_MalformedValuesFallBack(t *testing.T) {
	s := newTestSettings(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyMaxDailyHours, "not a number"))
	require.NoError(t, s.Set(ctx, KeyNotificationInterval, ""))

	assert.Equal(t, DefaultMaxDailyHours, s.MaxDailyHours(ctx))
	assert.Equal(t, time.Duration(DefaultNotificationIntervalMin)*time.Minute, s.NotificationInterval(ctx))
}

func TestSettings_AnyValueButFalseEnables(t *testing.T) {
	s := newTestSettings(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyIdleAlertEnabled, "yes"))
	assert.True(t, s.IdleAlertEnabled(ctx))
}

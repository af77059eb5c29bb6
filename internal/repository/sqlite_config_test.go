package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tguerin/timekeep/internal/testutil"
)

func TestConfigRepo_SeededDefaults(t *testing.T) {
	repo := NewSQLiteConfigRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	v, err := repo.Get(ctx, "max_daily_hours")
	require.NoError(t, err)
	assert.Equal(t, "7.5", v)

	v, err = repo.Get(ctx, "idle_alert_enabled")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestConfigRepo_SetOverwrites(t *testing.T) {
	repo := NewSQLiteConfigRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "max_daily_hours", "8"))

	v, err := repo.Get(ctx, "max_daily_hours")
	require.NoError(t, err)
	assert.Equal(t, "8", v)
}

func TestConfigRepo_Get_NotFound(t *testing.T) {
	repo := NewSQLiteConfigRepo(testutil.NewTestDB(t))

	_, err := repo.Get(context.Background(), "no_such_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

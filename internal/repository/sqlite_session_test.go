package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tguerin/timekeep/internal/domain"
	"github.com/tguerin/timekeep/internal/testutil"
)

func TestSessionRepo_CreateAndGetByID(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	sess := testutil.NewTestSession("PROJ-1", 1800,
		testutil.WithActivity(7, "Development", "dev"),
		testutil.WithComment("pairing"))
	require.NoError(t, repo.Create(ctx, sess))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, fetched.ID)
	assert.Equal(t, "PROJ-1", fetched.TaskKey)
	assert.Equal(t, 1800, fetched.DurationSeconds)
	assert.Equal(t, "pairing", fetched.Comment)
	assert.Equal(t, domain.SessionDraft, fetched.Status)
	require.NotNil(t, fetched.ActivityID)
	assert.Equal(t, 7, *fetched.ActivityID)
	require.NotNil(t, fetched.EndTime)
	assert.Equal(t, sess.StartTime.Unix(), fetched.StartTime.Unix())
}

func TestSessionRepo_CreateAssignsID(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	sess := testutil.NewTestSession("PROJ-1", 60)
	sess.ID = ""
	require.NoError(t, repo.Create(ctx, sess))
	assert.NotEmpty(t, sess.ID)
}

func TestSessionRepo_GetByID_NotFound(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_GetActive(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, active, "no open session means nil, not an error")

	closed := testutil.NewTestSession("PROJ-1", 1800)
	open := testutil.NewTestSession("PROJ-2", 0, testutil.OpenSession())
	require.NoError(t, repo.Create(ctx, closed))
	require.NoError(t, repo.Create(ctx, open))

	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, open.ID, active.ID)
	assert.Nil(t, active.EndTime)
}

func TestSessionRepo_ListByDate(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	early := testutil.NewTestSessionOn("2026-03-02", 9, "PROJ-1", 600)
	late := testutil.NewTestSessionOn("2026-03-02", 15, "PROJ-2", 900)
	other := testutil.NewTestSessionOn("2026-03-03", 9, "PROJ-1", 300)
	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, early))
	require.NoError(t, repo.Create(ctx, other))

	list, err := repo.ListByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Ordered by start_time.
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
}

func TestSessionRepo_ListByRange(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestSessionOn("2026-03-01", 9, "PROJ-1", 600)))
	require.NoError(t, repo.Create(ctx, testutil.NewTestSessionOn("2026-03-02", 9, "PROJ-1", 600)))
	require.NoError(t, repo.Create(ctx, testutil.NewTestSessionOn("2026-03-09", 9, "PROJ-1", 600)))

	list, err := repo.ListByRange(ctx, "2026-03-01", "2026-03-07")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSessionRepo_Update(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	sess := testutil.NewTestSession("PROJ-1", 1800)
	require.NoError(t, repo.Create(ctx, sess))

	sess.DurationSeconds = 900
	sess.Status = domain.SessionAdjusted
	ref := "12345"
	sess.ExportRef = &ref
	require.NoError(t, repo.Update(ctx, sess))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 900, fetched.DurationSeconds)
	assert.Equal(t, domain.SessionAdjusted, fetched.Status)
	require.NotNil(t, fetched.ExportRef)
	assert.Equal(t, "12345", *fetched.ExportRef)
}

func TestSessionRepo_Update_NotFound(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))

	ghost := testutil.NewTestSession("PROJ-1", 60)
	err := repo.Update(context.Background(), ghost)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_UpdateDuration(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	sess := testutil.NewTestSession("PROJ-1", 0, testutil.OpenSession())
	require.NoError(t, repo.Create(ctx, sess))

	require.NoError(t, repo.UpdateDuration(ctx, sess.ID, 30))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, fetched.DurationSeconds)
	assert.Nil(t, fetched.EndTime, "checkpoint does not close the session")
}

func TestSessionRepo_Close(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	sess := testutil.NewTestSession("PROJ-1", 0, testutil.OpenSession())
	require.NoError(t, repo.Create(ctx, sess))

	end := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Close(ctx, sess.ID, end, 125))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 125, fetched.DurationSeconds)
	require.NotNil(t, fetched.EndTime)
	assert.Equal(t, end.Unix(), fetched.EndTime.Unix())
}

func TestSessionRepo_Delete(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	sess := testutil.NewTestSession("PROJ-1", 60)
	require.NoError(t, repo.Create(ctx, sess))
	require.NoError(t, repo.Delete(ctx, sess.ID))

	_, err := repo.GetByID(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_NullActivityRoundTrips(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	sess := testutil.NewTestSession("PROJ-1", 60)
	require.NoError(t, repo.Create(ctx, sess))

	fetched, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.ActivityID)
	assert.Nil(t, fetched.ExportRef)
}

package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tguerin/timekeep/internal/config"
	"github.com/tguerin/timekeep/internal/domain"
	"github.com/tguerin/timekeep/internal/repository"
	"github.com/tguerin/timekeep/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, repository.SessionRepo, repository.SummaryRepo, *config.Settings) {
	t.Helper()
	database := testutil.NewTestDB(t)
	sessions := repository.NewSQLiteSessionRepo(database)
	summaries := repository.NewSQLiteSummaryRepo(database)
	settings := config.NewSettings(repository.NewSQLiteConfigRepo(database))
	eng := NewEngine(sessions, summaries, testutil.NewTestUoW(database), settings)
	return eng, sessions, summaries, settings
}

func seedSessions(t *testing.T, repo repository.SessionRepo, sessions ...*domain.WorkSession) {
	t.Helper()
	ctx := context.Background()
	for _, s := range sessions {
		require.NoError(t, repo.Create(ctx, s))
	}
}

func TestEngineAnalyzeDay(t *testing.T) {
	ctx := context.Background()
	const date = "2026-03-02"

	t.Run("uses the configured daily cap", func(t *testing.T) {
		eng, sessions, _, settings := newTestEngine(t)
		require.NoError(t, settings.Set(ctx, config.KeyMaxDailyHours, "2"))
		seedSessions(t, sessions, testutil.NewTestSessionOn(date, 9, "PROJ-1", 240*60))

		adj, err := eng.AnalyzeDay(ctx, date)

		require.NoError(t, err)
		assert.Equal(t, float64(120), adj.CapMinutes)
		assert.True(t, adj.NeedsAdjustment)
		assert.Equal(t, 120*60, adj.Groups[0].AdjustedTotalSeconds)
	})

	t.Run("analysis writes nothing", func(t *testing.T) {
		eng, sessions, summaries, _ := newTestEngine(t)
		seedSessions(t, sessions, testutil.NewTestSessionOn(date, 9, "PROJ-1", 600*60))

		_, err := eng.AnalyzeDay(ctx, date)
		require.NoError(t, err)

		stored, err := sessions.ListByDate(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, 600*60, stored[0].DurationSeconds)
		assert.Equal(t, domain.SessionDraft, stored[0].Status)

		_, err = summaries.GetByDate(ctx, date)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestEngineReleasesDateLocks(t *testing.T) {
	ctx := context.Background()
	eng, sessions, _, _ := newTestEngine(t)
	seedSessions(t, sessions, testutil.NewTestSessionOn("2026-03-02", 9, "PROJ-1", 600*60))

	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		_, err := eng.AnalyzeDay(ctx, date)
		require.NoError(t, err)
	}

	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Empty(t, eng.dateLocks, "lock table must not grow with every date seen")
}

func TestEngineApplyDayAdjustment(t *testing.T) {
	ctx := context.Background()
	const date = "2026-03-02"

	t.Run("persists adjusted durations and marks the day ready", func(t *testing.T) {
		eng, sessions, summaries, _ := newTestEngine(t)
		seedSessions(t, sessions,
			testutil.NewTestSessionOn(date, 9, "PROJ-1", 200*60),
			testutil.NewTestSessionOn(date, 12, "PROJ-1", 200*60),
			testutil.NewTestSessionOn(date, 15, "PROJ-2", 200*60),
		)

		adj, err := eng.AnalyzeDay(ctx, date)
		require.NoError(t, err)
		require.True(t, adj.NeedsAdjustment)
		require.NoError(t, eng.ApplyDayAdjustment(ctx, adj))

		stored, err := sessions.ListByDate(ctx, date)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		for _, s := range stored {
			// 600 min day against a 450 min cap scales everything by 0.75.
			assert.Equal(t, 150*60, s.DurationSeconds)
			assert.Equal(t, domain.SessionAdjusted, s.Status)
		}

		summary, err := summaries.GetByDate(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, domain.SummaryReady, summary.Status)
		assert.Equal(t, float64(600), summary.TotalMinutes)
		require.NotNil(t, summary.AdjustedMinutes)
		assert.Equal(t, float64(450), *summary.AdjustedMinutes)
	})

	t.Run("plan needing no adjustment is a no-op", func(t *testing.T) {
		eng, sessions, summaries, _ := newTestEngine(t)
		seedSessions(t, sessions, testutil.NewTestSessionOn(date, 9, "PROJ-1", 450*60))

		adj, err := eng.AnalyzeDay(ctx, date)
		require.NoError(t, err)
		require.False(t, adj.NeedsAdjustment)
		require.NoError(t, eng.ApplyDayAdjustment(ctx, adj))

		_, err = summaries.GetByDate(ctx, date)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestEngineUpdateTaskGroupDuration(t *testing.T) {
	ctx := context.Background()
	const date = "2026-03-02"

	t.Run("splits the new total proportionally", func(t *testing.T) {
		eng, sessions, summaries, _ := newTestEngine(t)
		seedSessions(t, sessions,
			testutil.NewTestSessionOn(date, 9, "PROJ-1", 600),
			testutil.NewTestSessionOn(date, 11, "PROJ-1", 300),
			testutil.NewTestSessionOn(date, 14, "PROJ-2", 1200),
		)

		key := domain.NewGroupKey("PROJ-1", nil)
		require.NoError(t, eng.UpdateTaskGroupDuration(ctx, date, key, 450))

		stored, err := sessions.ListByDate(ctx, date)
		require.NoError(t, err)
		byDuration := map[int]domain.SessionStatus{}
		for _, s := range stored {
			byDuration[s.DurationSeconds] = s.Status
		}
		assert.Equal(t, domain.SessionAdjusted, byDuration[300])
		assert.Equal(t, domain.SessionAdjusted, byDuration[150])
		assert.Equal(t, domain.SessionDraft, byDuration[1200])

		summary, err := summaries.GetByDate(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, domain.SummaryReady, summary.Status)
		assert.InDelta(t, float64(450+1200)/60, summary.TotalMinutes, 0.001)
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		eng, _, _, _ := newTestEngine(t)

		err := eng.UpdateTaskGroupDuration(ctx, date, domain.NewGroupKey("PROJ-9", nil), 450)

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("rejects negative durations", func(t *testing.T) {
		eng, _, _, _ := newTestEngine(t)

		err := eng.UpdateTaskGroupDuration(ctx, date, domain.NewGroupKey("PROJ-1", nil), -1)

		assert.Error(t, err)
	})

	t.Run("activity id narrows the group", func(t *testing.T) {
		eng, sessions, _, _ := newTestEngine(t)
		seedSessions(t, sessions,
			testutil.NewTestSessionOn(date, 9, "PROJ-1", 600),
			testutil.NewTestSessionOn(date, 11, "PROJ-1", 600, testutil.WithActivity(7, "Development", "dev")),
		)

		id := 7
		require.NoError(t, eng.UpdateTaskGroupDuration(ctx, date, domain.NewGroupKey("PROJ-1", &id), 900))

		stored, err := sessions.ListByDate(ctx, date)
		require.NoError(t, err)
		for _, s := range stored {
			if s.ActivityID != nil {
				assert.Equal(t, 900, s.DurationSeconds)
			} else {
				assert.Equal(t, 600, s.DurationSeconds)
			}
		}
	})
}

func TestEngineReopenDay(t *testing.T) {
	ctx := context.Background()
	const date = "2026-03-02"

	eng, sessions, summaries, _ := newTestEngine(t)
	seedSessions(t, sessions,
		testutil.NewTestSessionOn(date, 9, "PROJ-1", 3600,
			testutil.WithStatus(domain.SessionSent), testutil.WithExportRef("12345")),
		testutil.NewTestSessionOn(date, 11, "PROJ-2", 1800,
			testutil.WithStatus(domain.SessionSent), testutil.WithExportRef("12346")),
	)
	sentAt := time.Now().UTC()
	adjusted := 90.0
	require.NoError(t, summaries.Upsert(ctx, &domain.DailySummary{
		Date:            date,
		TotalMinutes:    90,
		AdjustedMinutes: &adjusted,
		Status:          domain.SummarySent,
		SentAt:          &sentAt,
	}))

	require.NoError(t, eng.ReopenDay(ctx, date))

	stored, err := sessions.ListByDate(ctx, date)
	require.NoError(t, err)
	for _, s := range stored {
		assert.Equal(t, domain.SessionDraft, s.Status)
		assert.Nil(t, s.ExportRef)
	}

	summary, err := summaries.GetByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, domain.SummaryPending, summary.Status)
	assert.Nil(t, summary.AdjustedMinutes)
	assert.Nil(t, summary.SentAt)
	assert.InDelta(t, 90, summary.TotalMinutes, 0.001)
}

func TestEngineAnalyzePendingDays(t *testing.T) {
	ctx := context.Background()
	eng, sessions, summaries, _ := newTestEngine(t)

	seedSessions(t, sessions,
		testutil.NewTestSessionOn("2026-03-02", 9, "PROJ-1", 600*60),
		testutil.NewTestSessionOn("2026-03-03", 9, "PROJ-2", 300*60),
	)
	require.NoError(t, summaries.Upsert(ctx, &domain.DailySummary{Date: "2026-03-02", TotalMinutes: 600, Status: domain.SummaryPending}))
	require.NoError(t, summaries.Upsert(ctx, &domain.DailySummary{Date: "2026-03-03", TotalMinutes: 300, Status: domain.SummaryReady}))
	sentAt := time.Now().UTC()
	require.NoError(t, summaries.Upsert(ctx, &domain.DailySummary{Date: "2026-03-01", TotalMinutes: 450, Status: domain.SummarySent, SentAt: &sentAt}))

	results, err := eng.AnalyzePendingDays(ctx)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2026-03-02", results[0].Date)
	assert.True(t, results[0].NeedsAdjustment)
	assert.Equal(t, "2026-03-03", results[1].Date)
}

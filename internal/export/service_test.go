package export

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tguerin/timekeep/internal/domain"
	"github.com/tguerin/timekeep/internal/repository"
	"github.com/tguerin/timekeep/internal/testutil"
)

// fakeExporter records created worklogs and can fail on a chosen task key.
type fakeExporter struct {
	created []Worklog
	failOn  string
	nextID  int
}

func (f *fakeExporter) CreateWorklog(_ context.Context, w Worklog) (string, error) {
	if w.TaskKey == f.failOn {
		return "", errors.New("boom")
	}
	f.nextID++
	f.created = append(f.created, w)
	return fmt.Sprintf("ref-%d", f.nextID), nil
}

func (f *fakeExporter) DeleteWorklog(context.Context, string) error { return nil }

func newTestService(t *testing.T) (*Service, *fakeExporter, repository.SessionRepo, repository.SummaryRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	sessions := repository.NewSQLiteSessionRepo(database)
	summaries := repository.NewSQLiteSummaryRepo(database)
	exporter := &fakeExporter{}
	svc := NewService(sessions, summaries, testutil.NewTestUoW(database), exporter)
	return svc, exporter, sessions, summaries
}

func seedReadyDay(t *testing.T, sessions repository.SessionRepo, summaries repository.SummaryRepo, date string) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []*domain.WorkSession{
		testutil.NewTestSessionOn(date, 9, "PROJ-1", 3600, testutil.WithStatus(domain.SessionAdjusted)),
		testutil.NewTestSessionOn(date, 11, "PROJ-1", 1800, testutil.WithStatus(domain.SessionAdjusted)),
		testutil.NewTestSessionOn(date, 14, "PROJ-2", 900, testutil.WithStatus(domain.SessionAdjusted)),
	} {
		require.NoError(t, sessions.Create(ctx, s))
	}
	adjusted := 105.0
	require.NoError(t, summaries.Upsert(ctx, &domain.DailySummary{
		Date:            date,
		TotalMinutes:    120,
		AdjustedMinutes: &adjusted,
		Status:          domain.SummaryReady,
	}))
}

func TestServiceSendDay(t *testing.T) {
	ctx := context.Background()
	const date = "2026-03-02"

	t.Run("sends one worklog per task group and closes the day", func(t *testing.T) {
		svc, exporter, sessions, summaries := newTestService(t)
		seedReadyDay(t, sessions, summaries, date)

		require.NoError(t, svc.SendDay(ctx, date))

		require.Len(t, exporter.created, 2)
		assert.Equal(t, "PROJ-1", exporter.created[0].TaskKey)
		assert.Equal(t, 5400, exporter.created[0].TimeSpentSeconds)
		assert.Equal(t, date, exporter.created[0].StartDate)
		assert.Equal(t, "PROJ-2", exporter.created[1].TaskKey)
		assert.Equal(t, 900, exporter.created[1].TimeSpentSeconds)

		stored, err := sessions.ListByDate(ctx, date)
		require.NoError(t, err)
		for _, s := range stored {
			assert.Equal(t, domain.SessionSent, s.Status)
			require.NotNil(t, s.ExportRef)
		}

		summary, err := summaries.GetByDate(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, domain.SummarySent, summary.Status)
		require.NotNil(t, summary.SentAt)
		assert.WithinDuration(t, time.Now().UTC(), *summary.SentAt, time.Minute)
	})

	t.Run("rejects a day that has not been reconciled", func(t *testing.T) {
		svc, _, sessions, summaries := newTestService(t)
		require.NoError(t, sessions.Create(ctx, testutil.NewTestSessionOn(date, 9, "PROJ-1", 3600)))
		require.NoError(t, summaries.Upsert(ctx, &domain.DailySummary{
			Date: date, TotalMinutes: 60, Status: domain.SummaryPending,
		}))

		err := svc.SendDay(ctx, date)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reconcile it before sending")
	})

	t.Run("day with no summary is not found", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		err := svc.SendDay(ctx, date)

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("partial failure keeps the day ready and skips sent groups on retry", func(t *testing.T) {
		svc, exporter, sessions, summaries := newTestService(t)
		seedReadyDay(t, sessions, summaries, date)
		exporter.failOn = "PROJ-2"

		err := svc.SendDay(ctx, date)
		require.Error(t, err)

		summary, err2 := summaries.GetByDate(ctx, date)
		require.NoError(t, err2)
		assert.Equal(t, domain.SummaryReady, summary.Status)

		stored, err2 := sessions.ListByDate(ctx, date)
		require.NoError(t, err2)
		sent := 0
		for _, s := range stored {
			if s.Status == domain.SessionSent {
				sent++
			}
		}
		assert.Equal(t, 2, sent)

		// Retry only exports the group that failed.
		exporter.failOn = ""
		require.NoError(t, svc.SendDay(ctx, date))
		require.Len(t, exporter.created, 2)
		assert.Equal(t, "PROJ-2", exporter.created[1].TaskKey)

		summary, err2 = summaries.GetByDate(ctx, date)
		require.NoError(t, err2)
		assert.Equal(t, domain.SummarySent, summary.Status)
	})
}

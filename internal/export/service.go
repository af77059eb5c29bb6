package export

import (
	"context"
	"fmt"
	"time"

	"github.com/tguerin/timekeep/internal/db"
	"github.com/tguerin/timekeep/internal/domain"
	"github.com/tguerin/timekeep/internal/reconcile"
	"github.com/tguerin/timekeep/internal/repository"
)

// Service sends a reconciled day to the worklog system. Network calls run
// outside transactions; each group's status flip commits on its own, so a
// mid-day failure leaves already-sent groups recorded and the summary still
// ready for a retry.
type Service struct {
	sessions  repository.SessionRepo
	summaries repository.SummaryRepo
	uow       db.UnitOfWork
	exporter  Exporter
	now       func() time.Time
}

func NewService(sessions repository.SessionRepo, summaries repository.SummaryRepo, uow db.UnitOfWork, exporter Exporter) *Service {
	return &Service{
		sessions:  sessions,
		summaries: summaries,
		uow:       uow,
		exporter:  exporter,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SendDay exports one worklog per task group for the given date. The day
// must have been reconciled first: a summary that is not ready is rejected.
// Sessions already sent are skipped, which makes retries after a partial
// failure safe.
func (s *Service) SendDay(ctx context.Context, date string) error {
	summary, err := s.summaries.GetByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("loading summary for %s: %w", date, err)
	}
	if summary.Status != domain.SummaryReady {
		return fmt.Errorf("day %s has status %s, reconcile it before sending", date, summary.Status)
	}

	all, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("listing sessions for %s: %w", date, err)
	}

	var unsent []*domain.WorkSession
	for _, sess := range all {
		if sess.Status != domain.SessionSent {
			unsent = append(unsent, sess)
		}
	}

	for _, g := range reconcile.BuildGroups(unsent) {
		var ref *string
		if g.OriginalTotalSeconds > 0 {
			created, err := s.exporter.CreateWorklog(ctx, Worklog{
				TaskKey:          g.Key.TaskKey,
				ActivityValue:    g.ActivityValue,
				TimeSpentSeconds: g.OriginalTotalSeconds,
				StartDate:        date,
				Description:      g.TaskTitle,
			})
			if err != nil {
				return fmt.Errorf("exporting %s on %s: %w", g.Key.TaskKey, date, err)
			}
			ref = &created
		}

		if err := s.markGroupSent(ctx, g, ref); err != nil {
			return err
		}
	}

	sentAt := s.now()
	summary.Status = domain.SummarySent
	summary.SentAt = &sentAt
	if err := s.summaries.Upsert(ctx, summary); err != nil {
		return fmt.Errorf("closing summary for %s: %w", date, err)
	}
	return nil
}

func (s *Service) markGroupSent(ctx context.Context, g *reconcile.TaskGroup, ref *string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)
		for _, sess := range g.Sessions {
			sess.Status = domain.SessionSent
			sess.ExportRef = ref
			if err := txSessions.Update(ctx, sess); err != nil {
				return fmt.Errorf("marking session %s sent: %w", sess.ID, err)
			}
		}
		return nil
	})
}

package reconcile

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/tguerin/timekeep/internal/config"
	"github.com/tguerin/timekeep/internal/db"
	"github.com/tguerin/timekeep/internal/domain"
	"github.com/tguerin/timekeep/internal/repository"
)

// AdjustedSession pairs a session with the duration reconciliation assigned
// to it. Original is never mutated during analysis.
type AdjustedSession struct {
	Original                *domain.WorkSession
	AdjustedDurationSeconds int
	WasAdjusted             bool
}

// DailyAdjustment is the result of analyzing one day against the daily cap.
// Analysis is read-only; nothing is persisted until ApplyDayAdjustment.
type DailyAdjustment struct {
	Date                 string
	CapMinutes           float64
	OriginalTotalMinutes float64
	AdjustedTotalMinutes float64
	NeedsAdjustment      bool
	Groups               []*TaskGroup
	Sessions             []AdjustedSession
}

// Engine scales each day's recorded time to the configured daily cap.
// Operations on the same date are serialized so that analyze, apply and
// manual edits never interleave.
type Engine struct {
	sessions  repository.SessionRepo
	summaries repository.SummaryRepo
	uow       db.UnitOfWork
	settings  *config.Settings

	mu        sync.Mutex
	dateLocks map[string]*dateLock
}

// dateLock is reference-counted so the lock table never outgrows the set
// of dates currently being worked on.
type dateLock struct {
	mu   sync.Mutex
	refs int
}

func NewEngine(sessions repository.SessionRepo, summaries repository.SummaryRepo, uow db.UnitOfWork, settings *config.Settings) *Engine {
	return &Engine{
		sessions:  sessions,
		summaries: summaries,
		uow:       uow,
		settings:  settings,
		dateLocks: make(map[string]*dateLock),
	}
}

func (e *Engine) lockDate(date string) func() {
	e.mu.Lock()
	l, ok := e.dateLocks[date]
	if !ok {
		l = &dateLock{}
		e.dateLocks[date] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.dateLocks, date)
		}
		e.mu.Unlock()
	}
}

// AnalyzeDay computes the adjustment plan for one date without writing
// anything. Tolerance is one minute: a day within a minute of the cap, or
// with no sessions or no recorded time at all, needs no adjustment.
func (e *Engine) AnalyzeDay(ctx context.Context, date string) (*DailyAdjustment, error) {
	unlock := e.lockDate(date)
	defer unlock()

	sessions, err := e.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("listing sessions for %s: %w", date, err)
	}

	cap := e.settings.MaxDailyMinutes(ctx)
	return adjustDay(date, sessions, cap), nil
}

// AnalyzePendingDays analyzes every day whose summary has not been sent.
func (e *Engine) AnalyzePendingDays(ctx context.Context) ([]*DailyAdjustment, error) {
	pending, err := e.summaries.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending days: %w", err)
	}

	results := make([]*DailyAdjustment, 0, len(pending))
	for _, s := range pending {
		adj, err := e.AnalyzeDay(ctx, s.Date)
		if err != nil {
			return nil, err
		}
		results = append(results, adj)
	}
	return results, nil
}

// ApplyDayAdjustment persists a previously computed plan: every adjusted
// session gets its new duration and the adjusted status, and the day's
// summary moves to ready. A plan that needed no adjustment is a no-op.
// All writes happen in one transaction.
func (e *Engine) ApplyDayAdjustment(ctx context.Context, adj *DailyAdjustment) error {
	if adj == nil || !adj.NeedsAdjustment {
		return nil
	}

	unlock := e.lockDate(adj.Date)
	defer unlock()

	return e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)
		txSummaries := repository.NewSQLiteSummaryRepo(tx)

		for _, as := range adj.Sessions {
			if !as.WasAdjusted {
				continue
			}
			updated := *as.Original
			updated.DurationSeconds = as.AdjustedDurationSeconds
			updated.Status = domain.SessionAdjusted
			if err := txSessions.Update(ctx, &updated); err != nil {
				return fmt.Errorf("adjusting session %s: %w", updated.ID, err)
			}
		}

		adjusted := adj.AdjustedTotalMinutes
		summary := &domain.DailySummary{
			Date:            adj.Date,
			TotalMinutes:    adj.OriginalTotalMinutes,
			AdjustedMinutes: &adjusted,
			Status:          domain.SummaryReady,
		}
		if err := txSummaries.Upsert(ctx, summary); err != nil {
			return fmt.Errorf("marking %s ready: %w", adj.Date, err)
		}
		return nil
	})
}

// UpdateTaskGroupDuration sets the total duration of one task group on one
// date, redistributing the new total across the group's sessions in
// proportion to their current durations. A group whose current total is
// zero is split evenly instead. Touched sessions become adjusted and the
// day's summary is recomputed as ready.
func (e *Engine) UpdateTaskGroupDuration(ctx context.Context, date string, key domain.GroupKey, newDurationSeconds int) error {
	if newDurationSeconds < 0 {
		return fmt.Errorf("duration must not be negative, got %d", newDurationSeconds)
	}

	unlock := e.lockDate(date)
	defer unlock()

	return e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)
		txSummaries := repository.NewSQLiteSummaryRepo(tx)

		all, err := txSessions.ListByDate(ctx, date)
		if err != nil {
			return fmt.Errorf("listing sessions for %s: %w", date, err)
		}

		group := &TaskGroup{Key: key}
		for _, s := range all {
			if s.Key() == key {
				group.Sessions = append(group.Sessions, s)
				group.OriginalTotalSeconds += s.DurationSeconds
			}
		}
		if len(group.Sessions) == 0 {
			return fmt.Errorf("no sessions for task %s on %s: %w", key.TaskKey, date, repository.ErrNotFound)
		}

		parts := splitAcrossSessions(group, newDurationSeconds)
		dayTotal := 0
		for _, s := range all {
			dayTotal += s.DurationSeconds
		}
		for i, s := range group.Sessions {
			dayTotal += parts[i] - s.DurationSeconds
			s.DurationSeconds = parts[i]
			s.Status = domain.SessionAdjusted
			if err := txSessions.Update(ctx, s); err != nil {
				return fmt.Errorf("updating session %s: %w", s.ID, err)
			}
		}

		totalMinutes := float64(dayTotal) / 60
		summary := &domain.DailySummary{
			Date:            date,
			TotalMinutes:    totalMinutes,
			AdjustedMinutes: &totalMinutes,
			Status:          domain.SummaryReady,
		}
		if err := txSummaries.Upsert(ctx, summary); err != nil {
			return fmt.Errorf("updating summary for %s: %w", date, err)
		}
		return nil
	})
}

// ReopenDay reverts a sent day so it can be reconciled again: sent sessions
// go back to draft with their export references cleared, and the summary
// returns to pending with no adjusted total.
func (e *Engine) ReopenDay(ctx context.Context, date string) error {
	unlock := e.lockDate(date)
	defer unlock()

	return e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)
		txSummaries := repository.NewSQLiteSummaryRepo(tx)

		sessions, err := txSessions.ListByDate(ctx, date)
		if err != nil {
			return fmt.Errorf("listing sessions for %s: %w", date, err)
		}

		total := 0
		for _, s := range sessions {
			total += s.DurationSeconds
			if s.Status != domain.SessionSent {
				continue
			}
			s.Status = domain.SessionDraft
			s.ExportRef = nil
			if err := txSessions.Update(ctx, s); err != nil {
				return fmt.Errorf("reopening session %s: %w", s.ID, err)
			}
		}

		summary := &domain.DailySummary{
			Date:         date,
			TotalMinutes: float64(total) / 60,
			Status:       domain.SummaryPending,
		}
		if err := txSummaries.Upsert(ctx, summary); err != nil {
			return fmt.Errorf("reopening summary for %s: %w", date, err)
		}
		return nil
	})
}

// adjustDay is the pure reconciliation pass. It scales every group toward
// the cap, quantizes group totals to quarter hours, distributes the
// quantization remainder largest-first, then propagates each group's final
// total back to its sessions at second granularity.
func adjustDay(date string, sessions []*domain.WorkSession, capMinutes float64) *DailyAdjustment {
	totalSeconds := 0
	for _, s := range sessions {
		totalSeconds += s.DurationSeconds
	}
	totalMinutes := float64(totalSeconds) / 60
	groups := BuildGroups(sessions)

	adj := &DailyAdjustment{
		Date:                 date,
		CapMinutes:           capMinutes,
		OriginalTotalMinutes: totalMinutes,
		AdjustedTotalMinutes: totalMinutes,
		Groups:               groups,
	}

	// A day with no recorded time has no proportions to scale; treating it
	// like an empty day avoids a division by zero in the coefficient.
	if len(sessions) == 0 || totalMinutes == 0 || math.Abs(totalMinutes-capMinutes) < 1 {
		for _, s := range sessions {
			adj.Sessions = append(adj.Sessions, AdjustedSession{
				Original:                s,
				AdjustedDurationSeconds: s.DurationSeconds,
			})
		}
		return adj
	}

	coefficient := capMinutes / totalMinutes
	quantizedTotal := 0.0
	for _, g := range groups {
		originalMinutes := float64(g.OriginalTotalSeconds) / 60
		adjustedMinutes := roundToQuantum(originalMinutes * coefficient)
		g.AdjustedTotalSeconds = int(adjustedMinutes * 60)
		g.WasAdjusted = g.AdjustedTotalSeconds != g.OriginalTotalSeconds
		quantizedTotal += adjustedMinutes
	}

	if diff := capMinutes - quantizedTotal; diff != 0 {
		distributeRemainder(groups, diff)
	}

	for _, g := range groups {
		parts := splitAcrossSessions(g, g.AdjustedTotalSeconds)
		for i, s := range g.Sessions {
			adj.Sessions = append(adj.Sessions, AdjustedSession{
				Original:                s,
				AdjustedDurationSeconds: parts[i],
				WasAdjusted:             parts[i] != s.DurationSeconds,
			})
		}
	}

	adj.AdjustedTotalMinutes = capMinutes
	adj.NeedsAdjustment = true
	return adj
}

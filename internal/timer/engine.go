// Package timer owns the work-timer state machine: at most one open
// session, a fixed tick cadence that accumulates elapsed time in memory,
// periodic durability checkpoints, and a conservative crash-recovery pass
// on construction.
package timer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tguerin/timekeep/internal/domain"
	"github.com/tguerin/timekeep/internal/repository"
)

// RecoveryMarker is appended to the comment of a session found still open
// at startup. The session is left unterminated for manual review.
const RecoveryMarker = "[needs review - recovered after crash]"

// checkpointEvery is the tick count between durability writes. Bounded
// data loss on crash is therefore checkpointEvery seconds of elapsed time.
const checkpointEvery = 10

const dateLayout = "2006-01-02"

// StartOptions carries the task identity for a new session. TaskKey is
// required; StartTime overrides the wall clock when backfilling.
type StartOptions struct {
	TaskKey   string
	TaskTitle string
	TaskType  string

	ActivityID    *int
	ActivityName  string
	ActivityValue string

	StartTime *time.Time
}

// Options tunes the engine. Zero values select the defaults: a 1-second
// tick, a 60-minute confirmation cadence, and the system clock.
type Options struct {
	TickInterval         time.Duration
	NotificationInterval time.Duration
	Now                  func() time.Time
}

// State is a snapshot of the engine's runtime state.
type State struct {
	Running   bool
	Paused    bool
	SessionID string
	TaskKey   string
	StartTime time.Time
	Elapsed   int
}

// Engine advances at most one active work session. All session-mutating
// operations are serialized on an internal mutex so a tick can never
// interleave with a stop.
type Engine struct {
	sessions  repository.SessionRepo
	summaries repository.SummaryRepo
	recents   repository.RecentTaskRepo
	sink      EventSink

	now          func() time.Time
	tickInterval time.Duration

	mu             sync.Mutex
	notifyInterval time.Duration
	running        bool
	paused         bool
	sessionID      string
	taskKey        string
	startTime      time.Time
	elapsed        int
	tickQuit       chan struct{}
	notifyQuit     chan struct{}
}

// New constructs the engine and runs crash recovery: a session left open by
// an unclean shutdown gets RecoveryMarker appended to its comment and stays
// unterminated; the engine itself starts Idle because the elapsed time
// across the crash is unknowable.
func New(ctx context.Context, sessions repository.SessionRepo, summaries repository.SummaryRepo, recents repository.RecentTaskRepo, sink EventSink, opts Options) (*Engine, error) {
	e := &Engine{
		sessions:       sessions,
		summaries:      summaries,
		recents:        recents,
		sink:           sink,
		now:            opts.Now,
		tickInterval:   opts.TickInterval,
		notifyInterval: opts.NotificationInterval,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.tickInterval <= 0 {
		e.tickInterval = time.Second
	}
	if e.notifyInterval <= 0 {
		e.notifyInterval = 60 * time.Minute
	}

	if err := e.recoverOrphan(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// abandonSession removes a session created by a Start that failed partway.
// Leaving it open would let a later Start open a second session, since the
// engine never considered this one running. Best effort: a failed delete
// leaves the row for recoverOrphan to flag on the next construction.
func (e *Engine) abandonSession(ctx context.Context, id string) {
	_ = e.sessions.Delete(ctx, id)
}

func (e *Engine) recoverOrphan(ctx context.Context) error {
	orphan, err := e.sessions.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("looking for orphaned session: %w", err)
	}
	if orphan == nil || strings.Contains(orphan.Comment, RecoveryMarker) {
		return nil
	}
	orphan.Comment = strings.TrimSpace(orphan.Comment + " " + RecoveryMarker)
	if err := e.sessions.Update(ctx, orphan); err != nil {
		return fmt.Errorf("flagging orphaned session %s: %w", orphan.ID, err)
	}
	return nil
}

// Start begins tracking a new session and returns its id. If a session is
// already running it is stopped first, so a task switch never leaves two
// sessions open.
func (e *Engine) Start(ctx context.Context, opts StartOptions) (string, error) {
	if opts.TaskKey == "" {
		return "", fmt.Errorf("start: task key is required")
	}

	e.mu.Lock()
	var events []Event

	if e.running {
		ev, err := e.stopLocked(ctx)
		if err != nil {
			e.mu.Unlock()
			return "", fmt.Errorf("stopping previous session: %w", err)
		}
		events = append(events, ev)
	}

	start := e.now()
	if opts.StartTime != nil {
		start = *opts.StartTime
	}

	session := &domain.WorkSession{
		TaskKey:       opts.TaskKey,
		TaskTitle:     opts.TaskTitle,
		TaskType:      opts.TaskType,
		ActivityID:    opts.ActivityID,
		ActivityName:  opts.ActivityName,
		ActivityValue: opts.ActivityValue,
		StartTime:     start,
		Status:        domain.SessionDraft,
	}
	if err := e.sessions.Create(ctx, session); err != nil {
		e.mu.Unlock()
		e.emitAll(events)
		return "", err
	}
	if err := e.recents.Touch(ctx, &domain.RecentTask{
		TaskKey:    opts.TaskKey,
		TaskTitle:  opts.TaskTitle,
		TaskType:   opts.TaskType,
		LastUsedAt: e.now().UTC(),
	}); err != nil {
		e.abandonSession(ctx, session.ID)
		e.mu.Unlock()
		e.emitAll(events)
		return "", err
	}
	if err := e.refreshSummary(ctx, session.Date()); err != nil {
		e.abandonSession(ctx, session.ID)
		e.mu.Unlock()
		e.emitAll(events)
		return "", err
	}

	e.running = true
	e.paused = false
	e.sessionID = session.ID
	e.taskKey = session.TaskKey
	e.startTime = start
	e.elapsed = 0
	e.startTickersLocked()

	events = append(events, Event{
		Kind:      EventStarted,
		SessionID: session.ID,
		TaskKey:   session.TaskKey,
		Time:      start,
	})
	e.mu.Unlock()

	e.emitAll(events)
	return session.ID, nil
}

// Stop closes the active session. Calling it while idle is a no-op.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	ev, err := e.stopLocked(ctx)
	e.mu.Unlock()

	e.emit(ev)
	return err
}

// stopLocked cancels the timers, persists the final duration and clears the
// runtime state. The state is cleared even when persistence fails, so the
// single-active-session invariant holds; the error is surfaced to the caller.
func (e *Engine) stopLocked(ctx context.Context) (Event, error) {
	e.stopTickersLocked()

	end := e.now()
	id := e.sessionID
	taskKey := e.taskKey
	elapsed := e.elapsed
	date := e.startTime.Format(dateLayout)

	e.running = false
	e.paused = false
	e.sessionID = ""
	e.taskKey = ""
	e.elapsed = 0

	ev := Event{Kind: EventStopped, SessionID: id, TaskKey: taskKey, Elapsed: elapsed, Time: end}

	if err := e.sessions.Close(ctx, id, end, elapsed); err != nil {
		return ev, err
	}
	if err := e.refreshSummary(ctx, date); err != nil {
		return ev, err
	}
	return ev, nil
}

// Pause suspends the tick without closing the session; the duration freezes
// until Resume. No-op when idle or already paused.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running || e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.stopTickersLocked()
	ev := Event{Kind: EventPaused, SessionID: e.sessionID, TaskKey: e.taskKey, Elapsed: e.elapsed, Time: e.now()}
	e.mu.Unlock()

	e.emit(ev)
}

// Resume restarts the tick after a Pause. No-op when idle or not paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	if !e.running || !e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = false
	e.startTickersLocked()
	ev := Event{Kind: EventResumed, SessionID: e.sessionID, TaskKey: e.taskKey, Elapsed: e.elapsed, Time: e.now()}
	e.mu.Unlock()

	e.emit(ev)
}

// SetNotificationInterval changes the confirmation cadence at runtime. The
// notification timer restarts with the new period; the main tick is not
// affected.
func (e *Engine) SetNotificationInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	e.notifyInterval = d
	if e.running && !e.paused {
		e.stopNotifyLocked()
		e.startNotifyLocked()
	}
	e.mu.Unlock()
}

// NotificationInterval returns the current confirmation cadence.
func (e *Engine) NotificationInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notifyInterval
}

// IsRunning reports whether a session is being tracked (paused counts as
// running: the session is still open).
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Elapsed returns the in-memory elapsed seconds of the active session.
func (e *Engine) Elapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// CurrentState returns a snapshot of the runtime state.
func (e *Engine) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Running:   e.running,
		Paused:    e.paused,
		SessionID: e.sessionID,
		TaskKey:   e.taskKey,
		StartTime: e.startTime,
		Elapsed:   e.elapsed,
	}
}

func (e *Engine) startTickersLocked() {
	e.tickQuit = make(chan struct{})
	go e.runTicks(e.tickQuit)
	e.startNotifyLocked()
}

func (e *Engine) stopTickersLocked() {
	if e.tickQuit != nil {
		close(e.tickQuit)
		e.tickQuit = nil
	}
	e.stopNotifyLocked()
}

func (e *Engine) startNotifyLocked() {
	e.notifyQuit = make(chan struct{})
	go e.runNotifications(e.notifyQuit, e.notifyInterval)
}

func (e *Engine) stopNotifyLocked() {
	if e.notifyQuit != nil {
		close(e.notifyQuit)
		e.notifyQuit = nil
	}
}

func (e *Engine) runTicks(quit chan struct{}) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			e.tick(context.Background())
		}
	}
}

func (e *Engine) runNotifications(quit chan struct{}, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			e.mu.Lock()
			ev := Event{Kind: EventConfirmWork, SessionID: e.sessionID, TaskKey: e.taskKey, Elapsed: e.elapsed, Time: e.now()}
			running := e.running && !e.paused
			e.mu.Unlock()
			if running {
				e.emit(ev)
			}
		}
	}
}

// tick advances elapsed time by one second and, every checkpointEvery
// ticks, persists the duration. A failed checkpoint is reported through the
// sink and retried at the next boundary; it never stops the tick loop. The
// persistence write happens under the engine lock so it cannot interleave
// with Stop.
func (e *Engine) tick(ctx context.Context) {
	e.mu.Lock()
	if !e.running || e.paused {
		e.mu.Unlock()
		return
	}
	e.elapsed++
	events := []Event{{
		Kind:      EventTick,
		SessionID: e.sessionID,
		TaskKey:   e.taskKey,
		Elapsed:   e.elapsed,
		Time:      e.now(),
	}}

	if e.elapsed%checkpointEvery == 0 {
		if err := e.checkpointLocked(ctx); err != nil {
			events = append(events, Event{
				Kind:      EventCheckpointError,
				SessionID: e.sessionID,
				Elapsed:   e.elapsed,
				Err:       err,
				Time:      e.now(),
			})
		}
	}
	e.mu.Unlock()

	e.emitAll(events)
}

func (e *Engine) checkpointLocked(ctx context.Context) error {
	if err := e.sessions.UpdateDuration(ctx, e.sessionID, e.elapsed); err != nil {
		return err
	}
	return e.refreshSummary(ctx, e.startTime.Format(dateLayout))
}

// refreshSummary recomputes the day's total and marks the summary pending.
// Any new session write invalidates a previous reconciliation, so the day
// drops back to pending until it is reconciled again.
func (e *Engine) refreshSummary(ctx context.Context, date string) error {
	sessions, err := e.sessions.ListByDate(ctx, date)
	if err != nil {
		return err
	}
	var totalSeconds int
	for _, s := range sessions {
		totalSeconds += s.DurationSeconds
	}
	return e.summaries.Upsert(ctx, &domain.DailySummary{
		Date:         date,
		TotalMinutes: float64(totalSeconds) / 60,
		Status:       domain.SummaryPending,
	})
}

func (e *Engine) emit(ev Event) {
	if e.sink != nil {
		e.sink.HandleTimerEvent(ev)
	}
}

func (e *Engine) emitAll(events []Event) {
	for _, ev := range events {
		e.emit(ev)
	}
}

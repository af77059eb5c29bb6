// Package idlewatch polls system input-idle time and timer state to decide
// when to prompt the user to start tracking. It is a condition gate, not a
// state machine: every poll re-evaluates all predicates; the only sticky
// state is the last-alert timestamp and the externally-set "alert open"
// flag.
package idlewatch

import (
	"context"
	"sync"
	"time"

	"github.com/tguerin/timekeep/internal/config"
)

// pollInterval is the cadence of condition checks.
const pollInterval = 30 * time.Second

// activityThreshold is the maximum input-idle time for the user to still
// count as present at the keyboard.
const activityThreshold = 60 * time.Second

// TimerState is the slice of the timer engine the monitor needs.
type TimerState interface {
	IsRunning() bool
}

// IdleTimeFunc reports how long the system input devices have been idle.
// The platform-specific implementation is supplied by the caller.
type IdleTimeFunc func() time.Duration

// Options tunes the monitor for tests. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	Now          func() time.Time
}

// Monitor emits an alert through the callback when every gate condition
// holds: feature enabled, no alert already open, timer idle, weekday,
// within working hours, user active at the keyboard, and cooldown elapsed.
type Monitor struct {
	settings *config.Settings
	timer    TimerState
	idleTime IdleTimeFunc
	alert    func()

	now          func() time.Time
	pollInterval time.Duration

	mu        sync.Mutex
	alertOpen bool
	lastAlert time.Time
	quit      chan struct{}
}

func New(settings *config.Settings, timer TimerState, idleTime IdleTimeFunc, alert func(), opts Options) *Monitor {
	m := &Monitor{
		settings:     settings,
		timer:        timer,
		idleTime:     idleTime,
		alert:        alert,
		now:          opts.Now,
		pollInterval: opts.PollInterval,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.pollInterval <= 0 {
		m.pollInterval = pollInterval
	}
	return m
}

// Start begins polling. An immediate check runs before the first interval.
// No-op if already started.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.quit != nil {
		m.mu.Unlock()
		return
	}
	m.quit = make(chan struct{})
	quit := m.quit
	m.mu.Unlock()

	go m.run(ctx, quit)
}

// Stop cancels the polling loop. No-op if not started.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	m.mu.Unlock()
}

func (m *Monitor) run(ctx context.Context, quit chan struct{}) {
	m.Check(ctx)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check evaluates the gate once and fires the alert callback when every
// condition holds. Exposed so the poll decision is testable without timers.
func (m *Monitor) Check(ctx context.Context) bool {
	if !m.settings.IdleAlertEnabled(ctx) {
		return false
	}

	m.mu.Lock()
	open := m.alertOpen
	last := m.lastAlert
	m.mu.Unlock()

	if open {
		return false
	}
	if m.timer.IsRunning() {
		return false
	}

	now := m.now()
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}

	startHour, endHour := m.settings.IdleAlertHours(ctx)
	if now.Hour() < startHour || now.Hour() >= endHour {
		return false
	}

	// User away from the keyboard: no point prompting.
	if m.idleTime() > activityThreshold {
		return false
	}

	if !last.IsZero() && now.Sub(last) < m.settings.IdleAlertInterval(ctx) {
		return false
	}

	m.mu.Lock()
	m.lastAlert = now
	m.mu.Unlock()

	if m.alert != nil {
		m.alert()
	}
	return true
}

// SetAlertOpen is called by the presentation layer while an alert popup is
// on screen, suppressing further alerts until it is cleared.
func (m *Monitor) SetAlertOpen(open bool) {
	m.mu.Lock()
	m.alertOpen = open
	m.mu.Unlock()
}

// ResetCooldown restarts the alert cooldown from now, typically when the
// user dismisses an alert.
func (m *Monitor) ResetCooldown() {
	m.mu.Lock()
	m.lastAlert = m.now()
	m.mu.Unlock()
}

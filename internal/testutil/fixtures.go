package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/tguerin/timekeep/internal/domain"
)

// SessionOption mutates a fixture session before it is returned.
type SessionOption func(*domain.WorkSession)

func WithStartTime(t time.Time) SessionOption {
	return func(s *domain.WorkSession) {
		s.StartTime = t
		end := t.Add(time.Duration(s.DurationSeconds) * time.Second)
		s.EndTime = &end
	}
}

func WithActivity(id int, name, value string) SessionOption {
	return func(s *domain.WorkSession) {
		s.ActivityID = &id
		s.ActivityName = name
		s.ActivityValue = value
	}
}

func WithStatus(st domain.SessionStatus) SessionOption {
	return func(s *domain.WorkSession) {
		s.Status = st
	}
}

func WithComment(c string) SessionOption {
	return func(s *domain.WorkSession) {
		s.Comment = c
	}
}

func WithExportRef(ref string) SessionOption {
	return func(s *domain.WorkSession) {
		s.ExportRef = &ref
	}
}

// OpenSession leaves the session unterminated (end_time NULL).
func OpenSession() SessionOption {
	return func(s *domain.WorkSession) {
		s.EndTime = nil
	}
}

// NewTestSession builds a closed draft session of the given duration,
// started one hour ago.
func NewTestSession(taskKey string, durationSeconds int, opts ...SessionOption) *domain.WorkSession {
	start := time.Now().UTC().Add(-1 * time.Hour)
	end := start.Add(time.Duration(durationSeconds) * time.Second)
	s := &domain.WorkSession{
		ID:              uuid.New().String(),
		TaskKey:         taskKey,
		TaskTitle:       "Test task " + taskKey,
		TaskType:        "Task",
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: durationSeconds,
		Status:          domain.SessionDraft,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTestSessionOn builds a closed draft session on a specific calendar
// date, at the given hour of day.
func NewTestSessionOn(date string, hour int, taskKey string, durationSeconds int, opts ...SessionOption) *domain.WorkSession {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic("testutil: bad date " + date)
	}
	start := day.Add(time.Duration(hour) * time.Hour)
	return NewTestSession(taskKey, durationSeconds, append([]SessionOption{WithStartTime(start)}, opts...)...)
}

package domain

import "time"

// WorkSession is one contiguous interval of tracked work on a task.
// EndTime is nil while the session is still open; DurationSeconds is the
// authoritative duration and, for an open session, holds the last
// checkpointed value rather than anything wall-clock derived.
type WorkSession struct {
	ID        string
	TaskKey   string
	TaskTitle string
	TaskType  string

	// Optional billing-activity classification. Together with TaskKey it
	// forms the grouping key for daily reconciliation.
	ActivityID    *int
	ActivityName  string
	ActivityValue string

	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds int
	Comment         string
	Status          SessionStatus

	// ExportRef is the reference returned by the time-booking system once
	// the session has been sent.
	ExportRef *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Date returns the calendar date (YYYY-MM-DD) the session belongs to,
// derived from its start time.
func (s *WorkSession) Date() string {
	return s.StartTime.Format("2006-01-02")
}

// Open reports whether the session has not been closed yet.
func (s *WorkSession) Open() bool {
	return s.EndTime == nil
}

// GroupKey identifies a task group: all sessions of one calendar date that
// share the same task key and activity classifier. It is comparable and
// usable as a map key. A session without an activity groups separately
// from any concrete activity id.
type GroupKey struct {
	TaskKey     string
	ActivityID  int
	HasActivity bool
}

// NewGroupKey builds a GroupKey from a task key and an optional activity id.
func NewGroupKey(taskKey string, activityID *int) GroupKey {
	k := GroupKey{TaskKey: taskKey}
	if activityID != nil {
		k.ActivityID = *activityID
		k.HasActivity = true
	}
	return k
}

// Key returns the session's grouping key.
func (s *WorkSession) Key() GroupKey {
	return NewGroupKey(s.TaskKey, s.ActivityID)
}

package domain

import "time"

// RecentTask records a task the user has tracked time on, most recent
// first. The timer engine refreshes it on every start.
type RecentTask struct {
	TaskKey    string
	TaskTitle  string
	TaskType   string
	LastUsedAt time.Time
}

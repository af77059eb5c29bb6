package domain

import "time"

// DailySummary aggregates one calendar date of tracked work.
// TotalMinutes is the raw sum of session durations; AdjustedMinutes is set
// once reconciliation against the daily cap has run.
type DailySummary struct {
	Date            string
	TotalMinutes    float64
	AdjustedMinutes *float64
	Status          SummaryStatus
	SentAt          *time.Time
}

package domain

type SessionStatus string

const (
	SessionDraft    SessionStatus = "draft"
	SessionAdjusted SessionStatus = "adjusted"
	SessionSent     SessionStatus = "sent"
)

type SummaryStatus string

const (
	SummaryPending SummaryStatus = "pending"
	SummaryReady   SummaryStatus = "ready"
	SummarySent    SummaryStatus = "sent"
)

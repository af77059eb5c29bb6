package timer

import "time"

// EventKind identifies a timer lifecycle event.
type EventKind string

const (
	// EventStarted fires once when a session begins tracking.
	EventStarted EventKind = "started"
	// EventTick fires every tick while the engine is running and not paused.
	EventTick EventKind = "tick"
	// EventCheckpointError fires when a periodic durability write fails.
	// The write is retried at the next checkpoint boundary.
	EventCheckpointError EventKind = "checkpoint_error"
	// EventConfirmWork fires on the notification cadence and asks the
	// presentation layer to confirm the user is still working.
	EventConfirmWork EventKind = "confirm_work"
	EventPaused      EventKind = "paused"
	EventResumed     EventKind = "resumed"
	EventStopped     EventKind = "stopped"
)

// Event is the payload delivered to an EventSink.
type Event struct {
	Kind      EventKind
	SessionID string
	TaskKey   string
	// Elapsed is the in-memory elapsed seconds at the time of the event.
	Elapsed int
	// Err is set for EventCheckpointError.
	Err  error
	Time time.Time
}

// EventSink receives engine events. Calls are made outside the engine's
// internal lock, so a sink may call back into the engine.
type EventSink interface {
	HandleTimerEvent(Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

func (f SinkFunc) HandleTimerEvent(e Event) { f(e) }

package job

import (
	"github.com/esrp/kernel/internal/protocol"
)

// terminalEvents is the set of event types that end a job's lifecycle.
var terminalEvents = map[EventType]bool{
	EventCompleted: true,
	EventFailed:    true,
	EventCancelled: true,
}

// IsTerminalEvent reports whether t is one of the three terminal event
// types.
func IsTerminalEvent(t EventType) bool {
	return terminalEvents[t]
}

// ValidateEvents checks that a job's emitted event stream satisfies the
// sequencing invariants of §4.5: the first event is job_queued, exactly one
// terminal event is present, and timestamps are monotonic non-decreasing.
// An empty stream is itself invalid, since every job emits at least
// job_queued.
func ValidateEvents(events []protocol.JobEvent) error {
	if len(events) == 0 {
		return &Error{Code: CodeInvalidEventSequence, Message: "event stream must not be empty"}
	}

	if events[0].EventType != EventQueued {
		return &Error{Code: CodeInvalidEventSequence, Message: "first event must be job_queued"}
	}

	terminalCount := 0
	for i, ev := range events {
		if IsTerminalEvent(ev.EventType) {
			terminalCount++
		}
		if i > 0 && ev.Timestamp.Before(events[i-1].Timestamp) {
			return &Error{Code: CodeInvalidEventSequence, Message: "event timestamps must be monotonic non-decreasing"}
		}
	}

	if terminalCount != 1 {
		return &Error{Code: CodeInvalidEventSequence, Message: "exactly one terminal event must be emitted"}
	}

	return nil
}

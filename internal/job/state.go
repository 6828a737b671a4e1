// Package job implements the ESRP job lifecycle state machine: the fixed
// set of legal state transitions, and the sequencing invariants an event
// stream must satisfy.
package job

import (
	"github.com/esrp/kernel/internal/protocol"
)

// State is one of the five job lifecycle states. It is a type alias for
// protocol.JobState so job.Queued and protocol.JobQueued are
// interchangeable without a conversion at the boundary.
type State = protocol.JobState

// EventType is a type alias for protocol.JobEventType.
type EventType = protocol.JobEventType

// The job lifecycle states, re-exported under this package's naming for
// callers that only need the state machine, not the full protocol package.
const (
	Queued    = protocol.JobQueued
	Started   = protocol.JobStarted
	Succeeded = protocol.JobSucceeded
	Failed    = protocol.JobFailed
	Cancelled = protocol.JobCancelled
)

// The job event types.
const (
	EventQueued          = protocol.EventJobQueued
	EventStarted         = protocol.EventJobStarted
	EventProgress        = protocol.EventJobProgress
	EventArtifactCreated = protocol.EventArtifactCreated
	EventCompleted       = protocol.EventJobCompleted
	EventFailed          = protocol.EventJobFailed
	EventCancelled       = protocol.EventJobCancelled
)

// terminalStates is the set of states from which no further transition is
// legal.
var terminalStates = map[State]bool{
	Succeeded: true,
	Failed:    true,
	Cancelled: true,
}

// IsTerminal reports whether s is one of the three terminal states.
func IsTerminal(s State) bool {
	return terminalStates[s]
}

// legalTransitions is the exhaustive set of (from, to) pairs the job FSM
// permits. Any pair not in this set — including every transition out of a
// terminal state — is rejected.
var legalTransitions = map[State]map[State]bool{
	Queued: {
		Started:   true,
		Cancelled: true,
	},
	Started: {
		Succeeded: true,
		Failed:    true,
		Cancelled: true,
	},
}

// Transition reports whether moving a job from `from` to `to` is legal,
// returning a *Error with CodeInvalidTransition if not.
func Transition(from, to State) error {
	if legalTransitions[from][to] {
		return nil
	}
	return &Error{Code: CodeInvalidTransition, From: from, To: to}
}

// CanTransition is the boolean form of Transition, for callers that only
// need a yes/no answer.
func CanTransition(from, to State) bool {
	return legalTransitions[from][to]
}

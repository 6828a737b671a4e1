package job

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the closed set of failures the job state machine can
// report.
type ErrorCode string

const (
	// CodeInvalidTransition is returned by Transition for any state pair
	// not in the fixed set of five legal transitions, including any
	// transition out of a terminal state.
	CodeInvalidTransition ErrorCode = "INVALID_INPUT_SEMANTIC"

	// CodeInvalidEventSequence is returned by ValidateEvents when an event
	// stream violates the first-event, terminal-count, or monotonic
	// timestamp invariants.
	CodeInvalidEventSequence ErrorCode = "INVALID_EVENT_SEQUENCE"
)

// Error reports a job state machine failure.
type Error struct {
	Code ErrorCode
	From State
	To   State

	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s -> %s is not a legal transition", e.Code, e.From, e.To)
}

// IsError reports whether err is a *Error with the given code.
func IsError(err error, code ErrorCode) bool {
	var je *Error
	if errors.As(err, &je) {
		return je.Code == code
	}
	return false
}

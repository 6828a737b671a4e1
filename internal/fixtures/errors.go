package fixtures

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the closed set of failures fixture generation and
// verification can report.
type ErrorCode string

const (
	// CodeReadFailed covers I/O failures reading a request or canonical
	// file.
	CodeReadFailed ErrorCode = "READ_FAILED"

	// CodeWriteFailed covers I/O failures writing a canonical or hash
	// file.
	CodeWriteFailed ErrorCode = "WRITE_FAILED"

	// CodeDecodeFailed is returned when a request file fails to parse as
	// a protocol.Request.
	CodeDecodeFailed ErrorCode = "DECODE_FAILED"

	// CodeCanonicalizeFailed wraps a canon package failure (e.g. a float
	// found in params).
	CodeCanonicalizeFailed ErrorCode = "CANONICALIZE_FAILED"

	// CodeMismatch is returned by Verify when the golden canonical bytes
	// or hash on disk no longer match what re-canonicalizing the request
	// produces.
	CodeMismatch ErrorCode = "MISMATCH"

	// CodeMissingGolden is returned by Verify when a request has no
	// corresponding canonical/<name>.json or .sha256 file.
	CodeMissingGolden ErrorCode = "MISSING_GOLDEN"
)

// Error reports a fixture generation or verification failure.
type Error struct {
	Code ErrorCode
	Name string

	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Code, e.Name, e.Message)
}

// Unwrap exposes the underlying error (e.g. a *canon.Error or
// *protocol.ValidationError) so errors.Is/errors.As can see past this
// package's own taxonomy into the root cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsError reports whether err is a *Error with the given code.
func IsError(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// Package httpstatus maps a protocol Response to the HTTP status code an
// HTTP binder (deliberately out of kernel scope per spec §1) should return.
// This is the one interface the kernel exposes toward that collaborator;
// it holds no transport dependency itself.
package httpstatus

import (
	"net/http"

	"github.com/esrp/kernel/internal/protocol"
)

// ForResponse returns the HTTP status code for resp per spec §6's mapping
// table: succeeded -> 200, accepted -> 202, failed -> a code selected by
// the response's error code (500 if no error is present, which violates
// §3.3's invariant but is handled defensively rather than panicking).
func ForResponse(resp *protocol.Response) int {
	switch resp.Status {
	case protocol.StatusSucceeded:
		return http.StatusOK
	case protocol.StatusAccepted:
		return http.StatusAccepted
	case protocol.StatusFailed:
		if resp.Error == nil {
			return http.StatusInternalServerError
		}
		return ForErrorCode(resp.Error.Code)
	default:
		return http.StatusInternalServerError
	}
}

// ForErrorCode maps a single protocol ErrorCode to its HTTP status.
func ForErrorCode(code protocol.ErrorCode) int {
	switch code {
	case protocol.CodeBackendUnavailable:
		return http.StatusBadGateway
	case protocol.CodeTimeout:
		return http.StatusRequestTimeout
	case protocol.CodeOOM:
		return http.StatusInsufficientStorage
	case protocol.CodeInvalidInputSchema, protocol.CodeInvalidInputSemantic, protocol.CodeInvalidInputSize:
		return http.StatusBadRequest
	case protocol.CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

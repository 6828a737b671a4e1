package protocol

import (
	"fmt"
	"strings"
)

// ValidateRequest checks a Request for structural conformance: version
// compatibility, a non-empty caller/target, and well-formed inputs. It is
// fail-fast — the first problem found is returned, not an accumulation.
func ValidateRequest(r *Request) error {
	if err := validateVersion(r.ESRPVersion); err != nil {
		return err
	}
	if r.Caller.System == "" {
		return newValidationError(ErrCodeEmptySystemName, "caller.system", "empty system name in caller")
	}
	if r.Target.Service == "" {
		return newValidationError(ErrCodeEmptyServiceName, "target.service", "empty service name in target")
	}
	if r.Target.Operation == "" {
		return newValidationError(ErrCodeEmptyOperationName, "target.operation", "empty operation name in target")
	}
	return validateInputs(r.Inputs)
}

// ValidateResponse checks a Response for structural conformance: version
// compatibility, status-conditional required fields, and well-formed
// artifacts. Fail-fast, like ValidateRequest.
func ValidateResponse(resp *Response) error {
	if err := validateVersion(resp.ESRPVersion); err != nil {
		return err
	}

	switch resp.Status {
	case StatusFailed:
		if resp.Error == nil {
			return newValidationError(ErrCodeMissingError, "error", "missing error details for failed response")
		}
	case StatusAccepted:
		if resp.Job == nil {
			return newValidationError(ErrCodeMissingJob, "job", "missing job details for accepted response")
		}
	case StatusSucceeded:
		// no additional requirements
	}

	for i, artifact := range resp.Artifacts {
		field := fmt.Sprintf("artifacts[%d]", i)
		if err := validateArtifactURI(artifact.URI, field); err != nil {
			return err
		}
		if err := validateSHA256(artifact.SHA256, field); err != nil {
			return err
		}
		if artifact.SizeBytes == 0 {
			return newValidationError(ErrCodeZeroArtifactSize, field+".size_bytes", "artifact size cannot be zero")
		}
	}

	return nil
}

func validateVersion(version string) error {
	parsed, err := ParseVersion(version)
	if err != nil {
		return newValidationError(ErrCodeInvalidVersionFmt, "esrp_version", err.Error())
	}
	current := CurrentVersion()
	if !parsed.IsCompatibleWith(current) {
		return newValidationError(ErrCodeVersionMismatch, "esrp_version",
			fmt.Sprintf("got %q, expected compatible with %q", version, current.String()))
	}
	return nil
}

func validateInputs(inputs []Input) error {
	if len(inputs) == 0 {
		return newValidationError(ErrCodeEmptyInputs, "inputs", "at least one input is required")
	}

	for i, in := range inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		if in.Name == "" {
			return newValidationError(ErrCodeEmptyInputName, field+".name", "empty input name")
		}
		if in.ContentType == "" {
			return newValidationError(ErrCodeEmptyContentType, field+".content_type", fmt.Sprintf("empty content type for input %q", in.Name))
		}
		if in.Encoding == EncodingPath {
			if err := validateWorkspaceURIIfPresent(in.Data, in.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateWorkspaceURIIfPresent(data, inputName string) error {
	if strings.HasPrefix(data, "workspace://") {
		return validateWorkspaceURIText(data)
	}
	if data == "" {
		return newValidationError(ErrCodeEmptyData, "data", fmt.Sprintf("empty data for input %q", inputName))
	}
	return nil
}

// validateWorkspaceURIText performs the structural checks the validator
// cares about (prefix, non-empty, no ".." segment, no leading slash). The
// full grammar (namespace charset, length limits) lives in
// internal/workspace and is checked when the workspace package itself
// parses the URI, not here — this is a shallow guard against obviously
// malformed data on the wire.
func validateWorkspaceURIText(uri string) error {
	const prefix = "workspace://"
	if !strings.HasPrefix(uri, prefix) {
		return newValidationError(ErrCodeInvalidWorkspaceURI, "data", "URI must start with 'workspace://'")
	}

	rest := uri[len(prefix):]
	if rest == "" {
		return newValidationError(ErrCodeInvalidWorkspaceURI, "data", "missing namespace and path")
	}

	for _, segment := range strings.Split(rest, "/") {
		if segment == ".." {
			return newValidationError(ErrCodeInvalidWorkspaceURI, "data", "path traversal (..) not allowed")
		}
	}

	if strings.HasPrefix(rest, "/") {
		return newValidationError(ErrCodeInvalidWorkspaceURI, "data", "path must be relative (no leading /)")
	}

	return nil
}

func validateArtifactURI(uri, field string) error {
	if !strings.HasPrefix(uri, "workspace://") {
		// other URI schemes (http, file, etc.) are out of scope for this check
		return nil
	}
	if err := validateWorkspaceURIText(uri); err != nil {
		msg := uri
		if ve, ok := err.(*ValidationError); ok {
			msg = fmt.Sprintf("%s: %s", uri, ve.Message)
		}
		return newValidationError(ErrCodeInvalidArtifactURI, field+".uri", msg)
	}
	return nil
}

// validateSHA256 checks that hash is 64 hexadecimal characters. Per the
// protocol's case-handling resolution, either case is accepted here —
// producers are expected to emit lowercase, but the validator does not
// reject mixed-case input.
func validateSHA256(hash, field string) error {
	if len(hash) != 64 {
		return newValidationError(ErrCodeInvalidSHA256, field+".sha256", fmt.Sprintf("invalid SHA256 hash %q: must be 64 hex characters", hash))
	}
	for _, c := range hash {
		if !isHexDigit(c) {
			return newValidationError(ErrCodeInvalidSHA256, field+".sha256", fmt.Sprintf("invalid SHA256 hash %q: must be 64 hex characters", hash))
		}
	}
	return nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esrp/kernel/internal/fingerprint"
	"github.com/esrp/kernel/internal/protocol"
)

// ValidationResult holds the outcome of validating a single request
// record.
type ValidationResult struct {
	Valid          bool   `json:"valid"`
	Error          string `json:"error,omitempty"`
	Code           string `json:"code,omitempty"`
	Field          string `json:"field,omitempty"`
	PayloadHashOK  bool   `json:"payload_hash_ok,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a request record against the protocol's structural rules",
		Long: `Decodes a JSON document as a protocol request record and runs the
validator: version match, non-empty caller/target names, a non-empty
inputs list with named, typed inputs, and workspace URI syntax for
path-encoded inputs — the well-formedness checks spec.md's
error-handling section requires before a backend ever sees the request.

If the request carries a payload_hash, it is also re-derived and checked
against the one on the wire.

Pass "-" to read from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := readInput(path, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	var req protocol.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return outputValidationFailure(formatter, "", "DECODE_FAILED", err.Error())
	}
	formatter.VerboseLog("decoded request %s -> %s.%s", req.RequestID, req.Target.Service, req.Target.Operation)

	if err := protocol.ValidateRequest(&req); err != nil {
		var ve *protocol.ValidationError
		if errors.As(err, &ve) {
			return outputValidationFailure(formatter, ve.Field, string(ve.Code), ve.Message)
		}
		return outputValidationFailure(formatter, "", "UNKNOWN", err.Error())
	}

	payloadHashOK := true
	if req.PayloadHash != nil && *req.PayloadHash != "" {
		ok, err := fingerprint.VerifyRequestPayloadHash(&req)
		if err != nil {
			return outputValidationFailure(formatter, "payload_hash", "HASH_DERIVATION_FAILED", err.Error())
		}
		payloadHashOK = ok
		if !ok {
			return outputValidationFailure(formatter, "payload_hash", "PAYLOAD_HASH_MISMATCH", "derived payload hash does not match payload_hash on the wire")
		}
	}

	result := ValidationResult{Valid: true, PayloadHashOK: payloadHashOK}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, "valid")
	return nil
}

func outputValidationFailure(formatter *OutputFormatter, field, code, message string) error {
	result := ValidationResult{Valid: false, Field: field, Code: code, Error: message}
	if formatter.Format == "json" {
		_ = formatter.Success(result)
	} else {
		fmt.Fprintf(formatter.Writer, "invalid [%s]", code)
		if field != "" {
			fmt.Fprintf(formatter.Writer, " field=%s", field)
		}
		fmt.Fprintf(formatter.Writer, ": %s\n", message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, message))
}

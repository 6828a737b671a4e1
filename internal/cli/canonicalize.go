package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/esrp/kernel/internal/canon"
)

// CanonicalizeOptions holds flags for the canonicalize command.
type CanonicalizeOptions struct {
	*RootOptions
	Output string
}

// NewCanonicalizeCommand creates the canonicalize command.
func NewCanonicalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CanonicalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "canonicalize <file>",
		Short: "Print the canonical JSON encoding of a value",
		Long: `Reads a JSON document and prints the bytes any conformant ESRP
implementation must produce for it: object keys sorted by UTF-8 byte
order, no insignificant whitespace, and a rejection of every floating
point number rather than a silently lossy re-encoding.

Pass "-" to read from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanonicalize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical bytes to this file instead of stdout")

	return cmd
}

func runCanonicalize(opts *CanonicalizeOptions, path string, cmd *cobra.Command) error {
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

	formatter.VerboseLog("read %d bytes from %s", len(data), path)

	value, err := canon.FromJSON(data)
	if err != nil {
		return describeCanonError(formatter, err)
	}

	canonical, err := canon.Canonicalize(value)
	if err != nil {
		return describeCanonError(formatter, err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, canonical, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("wrote %d canonical bytes to %s", len(canonical), opts.Output)
		return formatter.Success(fmt.Sprintf("wrote %d bytes to %s", len(canonical), opts.Output))
	}

	if formatter.Format == "json" {
		return formatter.Success(string(canonical))
	}
	fmt.Fprintln(formatter.Writer, string(canonical))
	return nil
}

func describeCanonError(formatter *OutputFormatter, err error) error {
	var ce *canon.Error
	if errors.As(err, &ce) {
		_ = formatter.Error(string(ce.Code), ce.Message, nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	return WrapExitError(ExitCommandError, "canonicalization failed", err)
}

// readInput reads path, or stdin if path is "-".
func readInput(path string, cmd *cobra.Command) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

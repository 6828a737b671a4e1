package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esrp/kernel/internal/canon"
)

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the SHA-256 of a value's canonical encoding",
		Long: `Canonicalizes a JSON document the same way "canonicalize" does and
prints the lowercase hex SHA-256 digest of the result. This is the
payload hash / idempotency key derivation described in the protocol's
fingerprinting rules, applied to an arbitrary JSON value rather than a
full request record.

Pass "-" to read from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runHash(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	hash, err := canon.HashJSON(data)
	if err != nil {
		return describeCanonError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"sha256": hash})
	}
	fmt.Fprintln(formatter.Writer, hash)
	return nil
}

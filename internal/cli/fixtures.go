package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esrp/kernel/internal/fixtures"
)

// FixturesOptions holds flags shared by the fixtures subcommands.
type FixturesOptions struct {
	*RootOptions
	RequestsDir  string
	CanonicalDir string
	Manifest     string
}

// NewFixturesCommand creates the fixtures command and its generate/verify
// subcommands.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Generate or verify the canonical conformance fixture corpus",
		Long: `Operates on a directory of request records and the canonical/
directory describing the canonical bytes and SHA-256 digest any
conformant implementation must reproduce for each one (spec §6,
"Fixtures format").`,
	}

	cmd.AddCommand(newFixturesGenerateCommand(rootOpts))
	cmd.AddCommand(newFixturesVerifyCommand(rootOpts))
	return cmd
}

func newFixturesGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FixturesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <requests-dir>",
		Short: "Generate canonical/*.json and canonical/*.sha256 for every request",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RequestsDir = args[0]
			return runFixturesGenerate(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.CanonicalDir, "canonical-dir", "", "output directory for canonical fixtures (default: <requests-dir>/canonical)")
	return cmd
}

func newFixturesVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FixturesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <requests-dir>",
		Short: "Verify every request reproduces its golden canonical fixture",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RequestsDir = args[0]
			return runFixturesVerify(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.CanonicalDir, "canonical-dir", "", "directory holding golden canonical fixtures (default: <requests-dir>/canonical)")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "optional fixtures.yaml manifest to check coverage against")
	return cmd
}

func resolveCanonicalDir(opts *FixturesOptions) string {
	if opts.CanonicalDir != "" {
		return opts.CanonicalDir
	}
	return opts.RequestsDir + "/canonical"
}

func runFixturesGenerate(opts *FixturesOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	canonicalDir := resolveCanonicalDir(opts)
	formatter.VerboseLog("generating fixtures from %s into %s", opts.RequestsDir, canonicalDir)

	results, err := fixtures.Generate(opts.RequestsDir, canonicalDir)
	if err != nil {
		return describeFixturesError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", r.Hash, r.Name)
	}
	return nil
}

func runFixturesVerify(opts *FixturesOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	canonicalDir := resolveCanonicalDir(opts)
	formatter.VerboseLog("verifying fixtures in %s against %s", opts.RequestsDir, canonicalDir)

	var results []fixtures.Result
	var err error
	if opts.Manifest != "" {
		var m *fixtures.Manifest
		m, err = fixtures.LoadManifest(opts.Manifest)
		if err == nil {
			results, err = fixtures.VerifyAgainstManifest(m, opts.RequestsDir, canonicalDir)
		}
	} else {
		results, err = fixtures.Verify(opts.RequestsDir, canonicalDir)
	}
	if err != nil {
		return describeFixturesError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "OK  %s  %s\n", r.Hash, r.Name)
	}
	return nil
}

func describeFixturesError(err error) error {
	var fe *fixtures.Error
	if errors.As(err, &fe) {
		return WrapExitError(ExitFailure, string(fe.Code), err)
	}
	return WrapExitError(ExitCommandError, "fixtures command failed", err)
}

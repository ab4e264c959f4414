package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mandate/internal/inspect"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
}

// NewInspectCommand creates the inspect command.
//
// This is the inspector side of the subprocess protocol: the shell's
// inspect command launches this subcommand and streams the serialized
// history to its stdin.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Reconstruct an audit stream from stdin",
		Long: `Read a newline-delimited audit stream from stdin, rebuild it in an
in-memory database, and print a reconstruction report.

The inspector keeps no state between runs: every stream is a complete
re-derivation of the session history, so the latest stream alone is enough
to reconstruct everything.

Examples:
  mandate run scenario.yaml --serialize | mandate inspect
  mandate inspect --format json < stream.jsonl`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	report, err := inspect.Load(cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to reconstruct audit stream", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Format == "json" {
		if err := formatter.Success(report, ""); err != nil {
			return WrapExitError(ExitCommandError, "failed to encode report", err)
		}
		return nil
	}

	printReport(formatter, report)
	return nil
}

// printReport renders a reconstruction report as text.
func printReport(f *OutputFormatter, report *inspect.Report) {
	w := f.Writer

	fmt.Fprintf(w, "Audit stream: %d events\n", report.Events)
	fmt.Fprintf(w, "Clock: %d\n", report.Clock)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Statements ===")
	if len(report.Statements) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, s := range report.Statements {
			fmt.Fprintf(w, "  [%d] %s: %q\n", s.Index, s.Author, s.Payload)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Agreements ===")
	if len(report.Agreements) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, a := range report.Agreements {
			fmt.Fprintf(w, "  [%d] statement %d at time %d\n", a.Index, a.StatementIdx, a.At)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Enactments ===")
	if len(report.Enactments) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, e := range report.Enactments {
			fmt.Fprintf(w, "  [%s] %s, basis at %d, justification {%s}\n",
				e.Label, e.Actor, e.BasisAt, e.Justification)
		}
	}
}

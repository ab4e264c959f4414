package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/mandate/internal/audit"
	"github.com/roach88/mandate/internal/ledger"
	"github.com/roach88/mandate/internal/script"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Serialize dumps the final audit stream to stdout after the scenario.
	Serialize bool

	// TokenGenerator allows overriding the session token generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	TokenGenerator ledger.SessionTokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against a fresh session",
		Long: `Run a YAML scenario against a fresh ledger session.

Each step applies one operation (declare, bind, enact, now) and may carry
an expect clause asserting the outcome. The command exits non-zero when
any expectation fails.

Examples:
  mandate run scenario.yaml
  mandate run scenario.yaml --serialize
  mandate run scenario.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Serialize, "serialize", false, "dump the final audit stream to stdout")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	scenario, err := script.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Debug("scenario loaded", "name", scenario.Name, "steps", len(scenario.Steps))

	session := ledger.NewSession(opts.TokenGenerator)
	result := script.Run(session, scenario)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result, session.Token()); err != nil {
			return WrapExitError(ExitCommandError, "failed to encode result", err)
		}
	} else {
		printRunResult(formatter, result)
	}

	if opts.Serialize {
		if err := audit.EncodeSnapshot(cmd.OutOrStdout(), session.Snapshot()); err != nil {
			return WrapExitError(ExitCommandError, "failed to serialize session", err)
		}
	}

	if !result.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed", scenario.Name))
	}
	return nil
}

// printRunResult renders a scenario result as text.
func printRunResult(f *OutputFormatter, result *script.Result) {
	w := f.Writer

	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(w, "Scenario: %s [%s]\n", result.ScenarioName, status)

	for _, sr := range result.Steps {
		mark := "ok"
		if !sr.Passed {
			mark = "FAIL"
		}
		switch {
		case sr.ErrorCode != "":
			fmt.Fprintf(w, "  [%d] %-7s %s(%d) (%s)\n", sr.Index, sr.Op, sr.ErrorCode, sr.ErrorIndex, mark)
		case sr.ReturnedIndex >= 0:
			fmt.Fprintf(w, "  [%d] %-7s -> %d (%s)\n", sr.Index, sr.Op, sr.ReturnedIndex, mark)
		default:
			fmt.Fprintf(w, "  [%d] %-7s (%s)\n", sr.Index, sr.Op, mark)
		}
		if !sr.Passed {
			fmt.Fprintf(w, "      %s\n", sr.Detail)
		}
	}

	for _, failure := range result.Failures {
		fmt.Fprintf(w, "  ! %s\n", failure)
	}
}

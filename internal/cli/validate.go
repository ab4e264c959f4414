package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mandate/internal/script"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationResult holds the outcome for one scenario file.
type ValidationResult struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files against the scenario schema.

Each file is checked for schema violations (wrong types, unknown ops,
out-of-range indices) and for missing per-operation arguments. Nothing is
executed.

Examples:
  mandate validate scenario.yaml
  mandate validate scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]ValidationResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		res := ValidationResult{Path: path, Valid: true}
		scenario, err := script.Load(path)
		if err != nil {
			res.Valid = false
			res.Error = err.Error()
			failed++
		} else {
			res.Name = scenario.Name
		}
		results = append(results, res)
	}

	if opts.Format == "json" {
		if err := formatter.Success(results, ""); err != nil {
			return WrapExitError(ExitCommandError, "failed to encode results", err)
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Fprintf(formatter.Writer, "%s: OK (%s)\n", res.Path, res.Name)
			} else {
				fmt.Fprintf(formatter.Writer, "%s: INVALID\n  %s\n", res.Path, res.Error)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario files invalid", failed, len(paths)))
	}
	return nil
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mandate/internal/audit"
	"github.com/roach88/mandate/internal/inspect"
	"github.com/roach88/mandate/internal/ledger"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions

	// Inspector is the command line the inspect shell command launches.
	// Empty means "re-invoke this binary with the inspect subcommand";
	// "-" writes the audit stream to stdout instead of a subprocess.
	Inspector string

	// TokenGenerator allows overriding the session token generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	TokenGenerator ledger.SessionTokenGenerator
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive ledger session",
		Long: `Start an interactive ledger session.

Commands:
  say <author> <payload>        declare a statement
  agree <statement> <time>      bind a statement into an agreement
  enact <actor> <basis> <id>*   enact an action citing justification
  now <time>                    set the session clock
  inspect                       serialize the history for the inspector
  quit                          end the session

The session state lives only for the lifetime of the process. The inspect
command hands the full serialized history to the inspector subprocess and
waits for it to exit.

Examples:
  mandate repl
  mandate repl --inspector "mandate inspect --format json"
  mandate repl --inspector -`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Inspector, "inspector", "", "inspector command line (default: this binary's inspect subcommand, \"-\" for stdout)")

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	inspector, err := resolveInspector(opts.Inspector)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve inspector", err)
	}

	session := ledger.NewSession(opts.TokenGenerator)
	slog.Debug("session started", "token", session.Token())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	shell := &shell{
		session:   session,
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
		inspector: inspector,
	}
	return shell.loop(parentCtx, cmd.InOrStdin())
}

// resolveInspector turns the --inspector flag into an argv.
// nil means "write the stream to stdout, no subprocess".
func resolveInspector(flag string) ([]string, error) {
	switch flag {
	case "-":
		return nil, nil
	case "":
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate own binary: %w", err)
		}
		return []string{self, "inspect"}, nil
	default:
		argv := strings.Fields(flag)
		if len(argv) == 0 {
			return nil, fmt.Errorf("inspector command is blank")
		}
		return argv, nil
	}
}

// shell is the interactive loop around a session. It contains no invariants
// of its own: every mutation goes through the session, and inspect goes
// through the audit serializer.
type shell struct {
	session   *ledger.Session
	out       io.Writer
	errOut    io.Writer
	inspector []string // nil: dump the stream to out
}

// loop reads commands until EOF or quit, re-rendering the session state
// after every line.
func (sh *shell) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	sh.render()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			sh.dispatch(ctx, line)
		}
		sh.render()
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "read input", err)
	}
	return nil
}

// dispatch parses and applies one command line. Parse failures are the
// shell's own MalformedCommand condition: usage is printed and the session
// continues untouched.
func (sh *shell) dispatch(ctx context.Context, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "say":
		// The payload is everything after the author, whitespace included.
		rest := strings.TrimSpace(strings.TrimPrefix(line, "say"))
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) < 2 {
			sh.usage()
			return
		}
		idx := sh.session.Declare(parts[0], strings.TrimSpace(parts[1]))
		fmt.Fprintf(sh.out, "statement %d declared\n", idx)

	case "agree":
		if len(args) != 2 {
			sh.usage()
			return
		}
		stmtIdx, err1 := strconv.Atoi(args[0])
		at, err2 := strconv.ParseUint(args[1], 10, 64)
		if err1 != nil || err2 != nil {
			sh.usage()
			return
		}
		idx, err := sh.session.Bind(stmtIdx, at)
		if err != nil {
			fmt.Fprintf(sh.out, "cannot agree on unsaid statement %d\n", stmtIdx)
			return
		}
		fmt.Fprintf(sh.out, "agreement %d recorded\n", idx)

	case "enact":
		if len(args) < 3 {
			sh.usage()
			return
		}
		actor := args[0]
		basis, err := strconv.Atoi(args[1])
		if err != nil {
			sh.usage()
			return
		}
		justification := make([]int, 0, len(args)-2)
		for _, a := range args[2:] {
			j, err := strconv.Atoi(a)
			if err != nil {
				sh.usage()
				return
			}
			justification = append(justification, j)
		}
		id, err := sh.session.Enact(actor, basis, justification)
		switch {
		case ledger.IsBasisUnknown(err):
			fmt.Fprintf(sh.out, "cannot base on unknown agreement %d\n", basis)
		case ledger.IsJustificationUnknown(err):
			var ve *ledger.ValidationError
			if errors.As(err, &ve) {
				fmt.Fprintf(sh.out, "cannot justify using unsaid statement %d\n", ve.Index)
			}
		case err != nil:
			fmt.Fprintf(sh.out, "enact rejected: %v\n", err)
		default:
			fmt.Fprintf(sh.out, "action (%s, %s) enacted\n", id.Actor, ledger.Label(id.Seq))
		}

	case "now":
		if len(args) != 1 {
			sh.usage()
			return
		}
		t, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			sh.usage()
			return
		}
		sh.session.SetTime(t)

	case "inspect":
		if len(args) != 0 {
			sh.usage()
			return
		}
		sh.inspect(ctx)

	default:
		sh.usage()
	}
}

// inspect serializes the session and hands the stream to the inspector, or
// dumps it to the shell's output when no inspector is configured.
func (sh *shell) inspect(ctx context.Context) {
	snap := sh.session.Snapshot()

	if sh.inspector == nil {
		if err := audit.EncodeSnapshot(sh.out, snap); err != nil {
			fmt.Fprintf(sh.errOut, "serialize failed: %v\n", err)
		}
		return
	}

	runner := &inspect.Runner{
		Command: sh.inspector,
		Stdout:  sh.out,
		Stderr:  sh.errOut,
	}
	if err := runner.Run(ctx, snap); err != nil {
		fmt.Fprintf(sh.errOut, "inspector failed: %v\n", err)
	}
}

// render prints the clock and the three logs as tables, like after every
// command in the original tool. Empty logs are omitted.
func (sh *shell) render() {
	snap := sh.session.Snapshot()

	fmt.Fprintf(sh.out, "current time: %d\n", snap.Now)
	if len(snap.Statements) > 0 {
		fmt.Fprintln(sh.out, "___s_id___|___author___|___payload___")
		for i, s := range snap.Statements {
			fmt.Fprintf(sh.out, "%9d | %-10s | %q\n", i, s.ID.Author, s.Payload)
		}
	}
	if len(snap.Agreements) > 0 {
		fmt.Fprintln(sh.out, "___a_id___|___s_id___|___time___")
		for i, a := range snap.Agreements {
			fmt.Fprintf(sh.out, "%9d | %8d | %d\n", i, a.Message.ID.Index, a.At)
		}
	}
	if len(snap.Enacted) > 0 {
		fmt.Fprintln(sh.out, "___e_id___|___actor___|___basis___|___justification___")
		for _, e := range snap.Enacted {
			fmt.Fprintf(sh.out, "%9s | %-9s | %9d | %s\n",
				ledger.Label(e.ID.Seq), e.ID.Actor, e.Basis.At, justificationIndices(e))
		}
	}
}

// usage prints the command reference, the shell's response to any
// malformed command.
func (sh *shell) usage() {
	fmt.Fprintln(sh.out, "Commands:")
	fmt.Fprintln(sh.out, "- say <author> <payload>")
	fmt.Fprintln(sh.out, "- agree <statement> <time>")
	fmt.Fprintln(sh.out, "- enact <actor> <basis> <statement>*")
	fmt.Fprintln(sh.out, "- now <time>")
	fmt.Fprintln(sh.out, "- inspect")
	fmt.Fprintln(sh.out, "- quit")
}

// justificationIndices renders the cited statement indices of an enactment.
func justificationIndices(e *ledger.Enactment) string {
	parts := make([]string, len(e.Justification))
	for i, s := range e.Justification {
		parts[i] = strconv.Itoa(s.ID.Index)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

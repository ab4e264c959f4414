package inspect

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/roach88/mandate/internal/audit"
	"github.com/roach88/mandate/internal/ledger"
)

// Runner hands a serialized audit stream to an external inspector process.
//
// The stream is written to the inspector's standard input through an OS
// pipe; stdin is then closed and the runner waits for the process to exit.
// Nothing is read back. OS pipes are bounded, so a consumer that never
// drains its input stalls the write. That backpressure lives at this
// boundary, not inside the core, and is why Run takes a context:
// cancellation kills the subprocess, which unblocks the stalled write.
type Runner struct {
	// Command is the inspector argv. Must be non-empty.
	Command []string

	// Stdout and Stderr receive the inspector's output. Nil discards.
	Stdout io.Writer
	Stderr io.Writer
}

// Run serializes the snapshot, streams it to the inspector, and waits for
// the inspector to terminate.
func (r *Runner) Run(ctx context.Context, snap ledger.Snapshot) error {
	if len(r.Command) == 0 {
		return fmt.Errorf("inspect: no inspector command configured")
	}

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("inspect: open stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("inspect: start %q: %w", r.Command[0], err)
	}

	encodeErr := audit.EncodeSnapshot(stdin, snap)
	closeErr := stdin.Close()
	waitErr := cmd.Wait()

	// Context cancellation is the most useful error to surface: it both
	// explains a killed inspector and a pipe write that failed mid-stream.
	if ctx.Err() != nil {
		return fmt.Errorf("inspect: %w", ctx.Err())
	}
	if waitErr != nil {
		return fmt.Errorf("inspect: inspector exited: %w", waitErr)
	}
	if encodeErr != nil {
		return fmt.Errorf("inspect: stream audit events: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("inspect: close stdin: %w", closeErr)
	}
	return nil
}

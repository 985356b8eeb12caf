package engines

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/advancedtts/advtts/internal/tts"
)

// maxStderr bounds how much engine diagnostics are kept per run
const maxStderr = 64 * 1024

// Invocation is a fully translated engine command
type Invocation struct {
	Command string
	Args    []string

	// Stdin is written to the process and then closed
	Stdin string

	// Env is appended to the current environment
	Env []string

	// SuccessMarker, when set, must appear on stdout for the run to count as successful
	SuccessMarker string
}

// Runner executes engine invocations
type Runner struct {
	// grace is how long a cancelled process has to exit after SIGINT before it is killed
	grace time.Duration
}

// NewRunner creates a runner
func NewRunner(grace time.Duration) *Runner {
	if grace <= 0 {
		grace = 2 * time.Second
	}
	return &Runner{grace: grace}
}

// Run starts inv and waits for it. Any nonzero exit, forced termination or
// missing success marker is reported as *tts.ExecutionError carrying stderr.
func (r *Runner) Run(ctx context.Context, engine string, inv Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Command, inv.Args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = r.grace

	// Stdin is set before Start; exec closes the child's end once the reader is drained
	if inv.Stdin != "" {
		cmd.Stdin = strings.NewReader(inv.Stdin)
	}
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	var stdout bytes.Buffer
	stderr := &limitedBuffer{limit: maxStderr}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil && ctx.Err() == nil {
		if inv.SuccessMarker == "" || strings.Contains(stdout.String(), inv.SuccessMarker) {
			return nil
		}
		err = errors.New("engine did not report success")
	}
	if ctx.Err() != nil {
		err = ctx.Err()
	}

	execErr := &tts.ExecutionError{
		Engine: engine,
		Stderr: stderr.String(),
		Err:    err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	return execErr
}

// limitedBuffer keeps the first limit bytes written to it
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}

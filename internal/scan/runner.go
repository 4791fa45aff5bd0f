package scan

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/bioscanq/scanq/pkg/domain"
)

// Runner executes a CommandSpec with captured output and a hard wall-clock
// timeout. Exactly one ExecutionOutcome is produced per call.
type Runner struct{}

func NewRunner() *Runner { return &Runner{} }

// Run blocks until the process exits or the spec's timeout elapses. On
// timeout the process is killed; it is never left running.
func (r *Runner) Run(ctx context.Context, spec domain.CommandSpec) domain.ExecutionOutcome {
	ctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	// Grace period between SIGKILL on context expiry and giving up on Wait,
	// so a stuck child cannot block the caller forever.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return domain.ExecutionOutcome{Kind: domain.OutcomeTimedOut}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.ExecutionOutcome{
				Kind:     domain.OutcomeFailure,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		// Start failures (missing executable, bad workdir) have no exit code.
		return domain.ExecutionOutcome{
			Kind:     domain.OutcomeFailure,
			ExitCode: -1,
			Stderr:   err.Error(),
		}
	}
	return domain.ExecutionOutcome{Kind: domain.OutcomeSuccess, Stdout: stdout.Bytes()}
}

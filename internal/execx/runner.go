// Package execx is the shared subprocess primitive for fleetctl. It offers
// bounded, captured execution for short commands (health probes, compose
// verbs) and unbounded line streaming for long-running ones (install
// scripts, log tailing).
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result holds the outcome of a captured command run. A non-zero exit code
// is data here, not an error; callers decide what it means.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// TimeoutError reports a command abandoned at its context deadline.
type TimeoutError struct {
	Command string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command timed out: %s", e.Command)
}

// NotFoundError reports that the executable for a command could not be
// found on PATH.
type NotFoundError struct {
	Tool string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executable not found: %s", e.Tool)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Run executes argv with dir as the working directory, honoring ctx's
// deadline. Stdout and stderr are captured separately. A non-zero exit is
// reported through Result.ExitCode with a nil error; a missing binary maps
// to *NotFoundError and an expired deadline to *TimeoutError.
func Run(ctx context.Context, dir string, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("execx: empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, &TimeoutError{Command: strings.Join(argv, " ")}
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	case errors.Is(err, exec.ErrNotFound):
		return res, &NotFoundError{Tool: argv[0], Err: err}
	default:
		return res, err
	}
}

// RunShell executes script through `sh -c` with dir as the working
// directory. Used for service-declared override commands, which are free to
// rely on shell semantics.
func RunShell(ctx context.Context, dir, script string) (Result, error) {
	return Run(ctx, dir, "sh", "-c", script)
}

package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultTimeout bounds one install/upgrade command attempt.
	DefaultTimeout = 300 * time.Second
	// VersionProbeTimeout bounds quick version-flag executions.
	VersionProbeTimeout = 10 * time.Second
	// DefaultRetries is the number of attempts for commands that fail to spawn.
	DefaultRetries = 3
	// DefaultRetryDelay is the initial backoff; it doubles between attempts.
	DefaultRetryDelay = time.Second
)

// RunOptions configures one shell command execution.
type RunOptions struct {
	Timeout time.Duration // per-attempt deadline; zero means DefaultTimeout
	Retries int           // attempts on spawn failure; zero means DefaultRetries
	Dir     string
	Env     []string // appended to the inherited environment
}

// RunResult captures the outcome of a completed command. A non-zero
// ExitCode is a legitimate result, not an execution failure.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes shell command strings. Implementations must return a
// non-nil error only for timeouts and cancellation; every other outcome,
// including spawn-failure exhaustion, is expressed through RunResult.
type Runner interface {
	Run(ctx context.Context, command string, opts RunOptions) (RunResult, error)
}

// ShellRunner runs commands through `bash -c` with retry and exponential
// backoff on spawn errors. Non-zero exits are returned immediately.
type ShellRunner struct {
	Log *log.Logger

	// sleep is swappable so tests can skip real backoff waits.
	sleep func(context.Context, time.Duration) error
}

// NewShellRunner creates a ShellRunner logging through logger.
func NewShellRunner(logger *log.Logger) *ShellRunner {
	return &ShellRunner{Log: logger, sleep: sleepCtx}
}

var _ Runner = (*ShellRunner)(nil)

// Run executes command, retrying spawn failures up to opts.Retries times
// with doubling delays. A timeout or cancellation returns an error
// immediately and is never retried. When every attempt fails to spawn, the
// result carries exit code -1 and a synthetic error message.
func (r *ShellRunner) Run(ctx context.Context, command string, opts RunOptions) (RunResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	delay := DefaultRetryDelay

	for attempt := 1; attempt <= retries; attempt++ {
		if r.Log != nil {
			r.Log.Debug("running command", "cmd", command, "attempt", attempt)
		}

		result, err := r.runOnce(ctx, command, timeout, opts)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return RunResult{}, fmt.Errorf("command timed out after %s: %s", timeout, command)
		}
		if ctx.Err() != nil {
			return RunResult{}, ctx.Err()
		}

		lastErr = err
		if r.Log != nil {
			r.Log.Warn("command failed to start", "cmd", command, "err", err, "attempt", attempt)
		}
		if attempt < retries {
			if err := sleep(ctx, delay); err != nil {
				return RunResult{}, err
			}
			delay *= 2
		}
	}

	return RunResult{
		ExitCode: -1,
		Stderr:   fmt.Sprintf("command failed after %d attempts: %v", retries, lastErr),
	}, nil
}

// runOnce performs a single attempt. Non-zero exits are folded into the
// result; only spawn errors and deadline/cancel conditions surface as errors.
func (r *ShellRunner) runOnce(ctx context.Context, command string, timeout time.Duration, opts RunOptions) (RunResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(attemptCtx, "bash", "-c", command)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if attemptCtx.Err() != nil {
		return RunResult{}, attemptCtx.Err()
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return RunResult{}, err
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newTestRunner(t *testing.T) *ShellRunner {
	t.Helper()
	r := NewShellRunner(log.New(io.Discard))
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestShellRunnerCapturesOutput(t *testing.T) {
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), "echo hello", RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode)
	}
	if result.Stdout != "hello\n" {
		t.Errorf("stdout = %q, want %q", result.Stdout, "hello\n")
	}
}

func TestShellRunnerNonZeroExitIsNotAnError(t *testing.T) {
	r := newTestRunner(t)
	sleeps := 0
	r.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	result, err := r.Run(context.Background(), "echo oops >&2; exit 3", RunOptions{})
	if err != nil {
		t.Fatalf("non-zero exit should not be an error, got %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}
	if result.Stderr != "oops\n" {
		t.Errorf("stderr = %q, want %q", result.Stderr, "oops\n")
	}
	if sleeps != 0 {
		t.Errorf("non-zero exit was retried %d times, want none", sleeps)
	}
}

func TestShellRunnerSpawnFailureExhaustsRetries(t *testing.T) {
	// An empty PATH makes bash itself unresolvable, so every attempt
	// fails to spawn.
	t.Setenv("PATH", "")

	r := newTestRunner(t)
	sleeps := 0
	r.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	result, err := r.Run(context.Background(), "echo unreachable", RunOptions{Retries: 2})
	if err != nil {
		t.Fatalf("exhausted retries should not be an error, got %v", err)
	}
	if result.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "command failed after 2 attempts") {
		t.Errorf("stderr = %q, want attempt count", result.Stderr)
	}
	if sleeps != 1 {
		t.Errorf("slept %d times between 2 attempts, want 1", sleeps)
	}
}

func TestShellRunnerTimeout(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(context.Background(), "sleep 5", RunOptions{Timeout: 100 * time.Millisecond})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %q, want timeout message", err)
	}
}

func TestShellRunnerCancelledContext(t *testing.T) {
	r := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "echo hello", RunOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestShellRunnerDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "probe.txt"), []byte("here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), `cat probe.txt && echo "$MK_TEST_FLAVOR"`, RunOptions{
		Dir: dir,
		Env: []string{"MK_TEST_FLAVOR=mint"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Stdout != "here\nmint\n" {
		t.Errorf("stdout = %q, want file content and env value", result.Stdout)
	}
}

func TestSleepCtxHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

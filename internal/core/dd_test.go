package core

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func newDDTest(t *testing.T, present map[string]bool, dryRun bool) (*DDBootstrap, *recordingRunner) {
	t.Helper()
	runner := &recordingRunner{}
	d := NewDDBootstrap(runner, log.New(io.Discard), dryRun)
	d.lookPath = func(name string) (string, bool) {
		if present[name] {
			return "/usr/local/bin/" + name, true
		}
		return "", false
	}
	return d, runner
}

func TestDDSpecKitDefaultAgent(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"specify": true}, false)

	reports := d.Run(context.Background(), DDOptions{SpecKit: true})
	if len(reports) != 1 || reports[0].Err != nil {
		t.Fatalf("reports = %+v", reports)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("calls = %v", runner.calls)
	}
	if runner.calls[0] != "specify check" {
		t.Errorf("preflight = %q", runner.calls[0])
	}
	if runner.calls[1] != "specify init . --ai claude" {
		t.Errorf("init = %q", runner.calls[1])
	}
}

func TestDDSpecKitCodexAgent(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"specify": true}, false)

	d.Run(context.Background(), DDOptions{SpecKit: true, Agent: "codex"})
	if runner.calls[1] != "specify init . --ai codex" {
		t.Errorf("init = %q", runner.calls[1])
	}
}

func TestDDSpecKitForce(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"specify": true}, false)

	d.Run(context.Background(), DDOptions{SpecKit: true, Force: true})
	if runner.calls[1] != "specify init . --ai claude --force" {
		t.Errorf("init = %q", runner.calls[1])
	}
}

func TestDDSpecKitMissingCLI(t *testing.T) {
	d, runner := newDDTest(t, nil, false)

	reports := d.Run(context.Background(), DDOptions{SpecKit: true})
	if reports[0].Err == nil {
		t.Fatal("expected failure when specify is missing")
	}
	if !strings.Contains(reports[0].Err.Error(), "specify") {
		t.Errorf("error should name the CLI: %v", reports[0].Err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("commands ran without the CLI: %v", runner.calls)
	}
}

func TestDDSpecKitCheckFailure(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"specify": true}, false)
	runner.status = map[string]int{"specify check": 1}
	runner.stderr = "AI agent not found"

	reports := d.Run(context.Background(), DDOptions{SpecKit: true})
	if reports[0].Err == nil {
		t.Fatal("expected failure when specify check fails")
	}
	if !strings.Contains(reports[0].Err.Error(), "AI agent not found") {
		t.Errorf("stderr not surfaced: %v", reports[0].Err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("init ran after a failed check: %v", runner.calls)
	}
}

func TestDDSpecKitInitFailure(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"specify": true}, false)
	runner.status = map[string]int{"specify init": 1}

	reports := d.Run(context.Background(), DDOptions{SpecKit: true})
	if reports[0].Err == nil {
		t.Fatal("expected failure when specify init fails")
	}
}

func TestDDSpecKitDryRunStopsAfterCheck(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"specify": true}, true)

	reports := d.Run(context.Background(), DDOptions{SpecKit: true})
	if reports[0].Err != nil {
		t.Fatalf("dry run failed: %v", reports[0].Err)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "specify check" {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestDDBmadPrefersBunx(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"bun": true, "npx": true}, false)

	reports := d.Run(context.Background(), DDOptions{BMad: true})
	if reports[0].Err != nil {
		t.Fatalf("bmad failed: %v", reports[0].Err)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "bunx bmad-method install" {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestDDBmadFallsBackToNpx(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"npx": true}, false)

	d.Run(context.Background(), DDOptions{BMad: true})
	if len(runner.calls) != 1 || runner.calls[0] != "npx bmad-method install" {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestDDBmadNoRunnerAvailable(t *testing.T) {
	d, runner := newDDTest(t, nil, false)

	reports := d.Run(context.Background(), DDOptions{BMad: true})
	if reports[0].Err == nil {
		t.Fatal("expected failure without bun or npx")
	}
	if len(runner.calls) != 0 {
		t.Errorf("commands ran: %v", runner.calls)
	}
}

func TestDDBmadDryRun(t *testing.T) {
	d, runner := newDDTest(t, map[string]bool{"bun": true}, true)

	reports := d.Run(context.Background(), DDOptions{BMad: true})
	if reports[0].Err != nil {
		t.Fatalf("dry run failed: %v", reports[0].Err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("dry run executed commands: %v", runner.calls)
	}
}

func TestDDBothToolsPartialFailure(t *testing.T) {
	// specify missing, bun present: spec-kit fails but bmad still runs.
	d, runner := newDDTest(t, map[string]bool{"bun": true}, false)

	reports := d.Run(context.Background(), DDOptions{SpecKit: true, BMad: true})
	if len(reports) != 2 {
		t.Fatalf("reports = %+v", reports)
	}
	if reports[0].Err == nil {
		t.Error("spec-kit should have failed")
	}
	if reports[1].Err != nil {
		t.Errorf("bmad should have succeeded: %v", reports[1].Err)
	}
	if AllDDFailed(reports) {
		t.Error("partial failure reported as total failure")
	}
	if len(runner.calls) != 1 || runner.calls[0] != "bunx bmad-method install" {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestDDAllFailed(t *testing.T) {
	d, _ := newDDTest(t, nil, false)

	reports := d.Run(context.Background(), DDOptions{SpecKit: true, BMad: true})
	if !AllDDFailed(reports) {
		t.Errorf("both flows failed but AllDDFailed is false: %+v", reports)
	}
	if AllDDFailed(nil) {
		t.Error("empty report slice must not count as all-failed")
	}
}

package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/monokickstart/mk/internal/core"
)

func TestCopilotRejectsOldNode(t *testing.T) {
	runner := &fakeRunner{rules: []runRule{
		{match: "node --version", result: core.RunResult{ExitCode: 0, Stdout: "v21.0.0\n"}},
	}}
	deps := testDeps(t, runner, map[string]bool{"node": true, "npm": true})

	tl, _ := New("copilot-cli", deps)
	report := tl.Install(context.Background())

	if report.Result != core.ResultFailed {
		t.Fatalf("result = %s, want %s", report.Result, core.ResultFailed)
	}
	if !strings.Contains(report.Err, "v21.0.0") {
		t.Errorf("err = %q, want the current version v21.0.0", report.Err)
	}
	if !strings.Contains(report.Err, "v22.0.0") {
		t.Errorf("err = %q, want the required version v22.0.0", report.Err)
	}
	if runner.ran("npm install") {
		t.Errorf("commands %v, npm install must not run with an old Node.js", runner.calls)
	}
}

func TestCopilotInstallsWithRecentNode(t *testing.T) {
	present := map[string]bool{"node": true, "npm": true}
	runner := &fakeRunner{rules: []runRule{
		{match: "node --version", result: core.RunResult{ExitCode: 0, Stdout: "v22.4.1\n"}},
		{match: "copilot --version", result: core.RunResult{ExitCode: 0, Stdout: "0.0.339\n"}},
	}}
	runner.onRun = func(command string) {
		if strings.Contains(command, "npm install -g @github/copilot") {
			present["copilot"] = true
		}
	}
	deps := testDeps(t, runner, present)

	tl, _ := New("copilot-cli", deps)
	report := tl.Install(context.Background())

	if report.Result != core.ResultSuccess {
		t.Fatalf("result = %s, want %s (report: %+v)", report.Result, core.ResultSuccess, report)
	}
	if report.Version != "0.0.339" {
		t.Errorf("version = %q, want 0.0.339", report.Version)
	}
}

func TestCopilotRequiresNode(t *testing.T) {
	runner := &fakeRunner{}
	deps := testDeps(t, runner, map[string]bool{"npm": true})

	tl, _ := New("copilot-cli", deps)
	report := tl.Install(context.Background())

	if report.Result != core.ResultFailed {
		t.Fatalf("result = %s, want %s", report.Result, core.ResultFailed)
	}
	if !strings.Contains(report.Err, "Node.js is not installed") {
		t.Errorf("err = %q, want a missing Node.js explanation", report.Err)
	}
}

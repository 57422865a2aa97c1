package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/monokickstart/mk/internal/core"
)

func TestNVMInstallWritesShellConfig(t *testing.T) {
	runner := &fakeRunner{rules: []runRule{
		{match: "nvm --version", result: core.RunResult{ExitCode: 0, Stdout: "0.40.4\n"}},
	}}
	deps := testDeps(t, runner, nil)
	deps.Fetcher = fetcherFunc(func(ctx context.Context, url, dest string) bool {
		return os.WriteFile(dest, []byte("#!/usr/bin/env bash\n"), 0o755) == nil
	})
	// The install script creates ~/.nvm/nvm.sh as a side effect.
	runner.onRun = func(command string) {
		if strings.HasPrefix(command, "bash ") {
			dir := filepath.Join(deps.Home, ".nvm")
			os.MkdirAll(dir, 0o755)
			os.WriteFile(filepath.Join(dir, "nvm.sh"), []byte("# nvm\n"), 0o644)
		}
	}

	tl, _ := New("nvm", deps)
	report := tl.Install(context.Background())

	if report.Result != core.ResultSuccess {
		t.Fatalf("result = %s, want %s (report: %+v)", report.Result, core.ResultSuccess, report)
	}
	if report.Version != "0.40.4" {
		t.Errorf("version = %q, want 0.40.4", report.Version)
	}

	content, err := os.ReadFile(deps.Platform.ShellConfigFile)
	if err != nil {
		t.Fatalf("reading shell config: %v", err)
	}
	if !strings.Contains(string(content), `export NVM_DIR="$HOME/.nvm"`) {
		t.Errorf("shell config missing the NVM_DIR export:\n%s", content)
	}

	// A second install must skip without touching the shell config again.
	before := string(content)
	report = tl.Install(context.Background())
	if report.Result != core.ResultSkipped {
		t.Fatalf("second install result = %s, want %s", report.Result, core.ResultSkipped)
	}
	after, _ := os.ReadFile(deps.Platform.ShellConfigFile)
	if string(after) != before {
		t.Error("second install modified the shell config")
	}
}

func TestNVMShellConfigNotDuplicated(t *testing.T) {
	runner := &fakeRunner{rules: []runRule{
		{match: "nvm --version", result: core.RunResult{ExitCode: 0, Stdout: "0.40.4\n"}},
	}}
	deps := testDeps(t, runner, nil)
	deps.Fetcher = fetcherFunc(func(ctx context.Context, url, dest string) bool {
		return os.WriteFile(dest, []byte("#!/usr/bin/env bash\n"), 0o755) == nil
	})
	runner.onRun = func(command string) {
		if strings.HasPrefix(command, "bash ") {
			dir := filepath.Join(deps.Home, ".nvm")
			os.MkdirAll(dir, 0o755)
			os.WriteFile(filepath.Join(dir, "nvm.sh"), []byte("# nvm\n"), 0o644)
		}
	}

	// Shell config already carries an NVM block from a manual install.
	existing := "export NVM_DIR=\"$HOME/.nvm\"\n[ -s \"$NVM_DIR/nvm.sh\" ] && . \"$NVM_DIR/nvm.sh\"\n"
	if err := os.WriteFile(deps.Platform.ShellConfigFile, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	tl, _ := New("nvm", deps)
	if report := tl.Install(context.Background()); report.Result != core.ResultSuccess {
		t.Fatalf("result = %s, want %s (report: %+v)", report.Result, core.ResultSuccess, report)
	}

	content, _ := os.ReadFile(deps.Platform.ShellConfigFile)
	if string(content) != existing {
		t.Errorf("existing NVM block was rewritten:\n%s", content)
	}
}

func TestNVMDownloadFailure(t *testing.T) {
	runner := &fakeRunner{}
	deps := testDeps(t, runner, nil)
	// Default test fetcher always fails.

	tl, _ := New("nvm", deps)
	report := tl.Install(context.Background())

	if report.Result != core.ResultFailed {
		t.Fatalf("result = %s, want %s", report.Result, core.ResultFailed)
	}
	if !strings.Contains(report.Message, "download") {
		t.Errorf("message = %q, want a download failure", report.Message)
	}
	if runner.ran("bash ") {
		t.Errorf("commands %v, install script must not run after a failed download", runner.calls)
	}
}

func TestNodeRequiresNVM(t *testing.T) {
	runner := &fakeRunner{}
	deps := testDeps(t, runner, nil)

	tl, _ := New("node", deps)
	report := tl.Install(context.Background())

	if report.Result != core.ResultFailed {
		t.Fatalf("result = %s, want %s", report.Result, core.ResultFailed)
	}
	if !strings.Contains(report.Err, "install nvm first") {
		t.Errorf("err = %q, want the nvm hint", report.Err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("commands %v, nothing should run without nvm", runner.calls)
	}
}

func TestNodeInstallUsesConfiguredVersion(t *testing.T) {
	var calls []string
	installed := false
	runner := runnerFunc(func(ctx context.Context, command string, opts core.RunOptions) (core.RunResult, error) {
		calls = append(calls, command)
		switch {
		case strings.Contains(command, "nvm --version"):
			return core.RunResult{ExitCode: 0, Stdout: "0.40.4\n"}, nil
		case strings.Contains(command, "nvm install"):
			installed = true
			return core.RunResult{ExitCode: 0}, nil
		case strings.Contains(command, "node --version") && installed:
			return core.RunResult{ExitCode: 0, Stdout: "v22.1.0\n"}, nil
		case strings.Contains(command, "node --version"):
			return core.RunResult{ExitCode: 127, Stderr: "node: command not found\n"}, nil
		}
		return core.RunResult{ExitCode: 0}, nil
	})
	deps := testDeps(t, runner, nil)
	deps.Config.Version = "22"
	nvmDir := filepath.Join(deps.Home, ".nvm")
	os.MkdirAll(nvmDir, 0o755)
	os.WriteFile(filepath.Join(nvmDir, "nvm.sh"), []byte("# nvm\n"), 0o644)

	tl, _ := New("node", deps)
	report := tl.Install(context.Background())

	if report.Result != core.ResultSuccess {
		t.Fatalf("result = %s, want %s (report: %+v)", report.Result, core.ResultSuccess, report)
	}
	ran := func(substr string) bool {
		for _, c := range calls {
			if strings.Contains(c, substr) {
				return true
			}
		}
		return false
	}
	if !ran("nvm install 22") {
		t.Errorf("commands %v, want nvm install 22", calls)
	}
	if !ran("nvm alias default 22") {
		t.Errorf("commands %v, want nvm alias default 22", calls)
	}
	if report.Version != "22.1.0" {
		t.Errorf("version = %q, want 22.1.0", report.Version)
	}
}

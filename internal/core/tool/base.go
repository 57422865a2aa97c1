package tool

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

// base holds the identity and dependencies shared by every installer and
// supplies the default Verify and InstalledVersion built on a version probe.
// Tools with an unusual presence check (nvm, conda) override those methods.
type base struct {
	deps Deps

	name       string // report key: "claude-code"
	display    string // human name in messages: "Claude Code"
	command    string // executable probed on PATH: "claude"
	versionArg string // argument that prints the version: "--version"
}

func (b *base) Name() string { return b.name }

// run executes command through the injected runner.
func (b *base) run(ctx context.Context, command string, timeout time.Duration, retries int) (core.RunResult, error) {
	return b.deps.Runner.Run(ctx, command, core.RunOptions{Timeout: timeout, Retries: retries})
}

func (b *base) lookPath(name string) (string, bool) {
	if b.deps.LookPath != nil {
		return b.deps.LookPath(name)
	}
	return core.LookPath(name)
}

// Verify checks that the command is on PATH and that its version probe
// exits zero.
func (b *base) Verify(ctx context.Context) bool {
	if _, ok := b.lookPath(b.command); !ok {
		return false
	}
	result, err := b.run(ctx, b.command+" "+b.versionArg, core.VersionProbeTimeout, 1)
	return err == nil && result.ExitCode == 0
}

// InstalledVersion extracts the version from the probe output, or returns
// "" when the tool is absent or the output is unparseable.
func (b *base) InstalledVersion(ctx context.Context) string {
	if _, ok := b.lookPath(b.command); !ok {
		return ""
	}
	result, err := b.run(ctx, b.command+" "+b.versionArg, core.VersionProbeTimeout, 1)
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	return core.VersionFromOutput(result.Stdout + result.Stderr)
}

// packageManager picks bun or npm for JS package installs: an explicit
// install_via wins, otherwise bun when present, npm as the fallback.
func (b *base) packageManager() string {
	if via := strings.ToLower(strings.TrimSpace(b.deps.Config.InstallVia)); via != "" {
		return via
	}
	if _, ok := b.lookPath("bun"); ok {
		return "bun"
	}
	return "npm"
}

// Report helpers. Every installer funnels its outcomes through these so the
// summary output stays uniform across tools.

func (b *base) skipInstalled(version string) core.InstallReport {
	return core.Skipped(b.name, version, fmt.Sprintf("%s already installed, skipping", b.display))
}

func (b *base) installed(version string) core.InstallReport {
	return core.Succeeded(b.name, version, fmt.Sprintf("%s installed successfully", b.display))
}

func (b *base) upgraded(oldVersion, newVersion string) core.InstallReport {
	return core.Succeeded(b.name, newVersion,
		fmt.Sprintf("%s upgraded (%s -> %s)", b.display, orUnknown(oldVersion), orUnknown(newVersion)))
}

func (b *base) notInstalled() core.InstallReport {
	return core.Failed(b.name,
		fmt.Sprintf("%s is not installed, cannot upgrade", b.display),
		fmt.Sprintf("install %s first", b.name))
}

func (b *base) installFailed(message string, result core.RunResult) core.InstallReport {
	return core.Failed(b.name, message, errText(result))
}

func (b *base) verifyFailed(action string) core.InstallReport {
	return core.Failed(b.name,
		fmt.Sprintf("%s verification failed", b.display),
		fmt.Sprintf("the %s command succeeded but %s could not be verified", action, b.display))
}

func (b *base) missingDependency(dep, hint string) core.InstallReport {
	return core.Failed(b.name,
		fmt.Sprintf("%s is required to %s %s", dep, hint, b.display),
		fmt.Sprintf("install %s first", dep))
}

// requireManager fails the report when the chosen package manager is not
// on PATH, pointing at the alternative as a way out.
func (b *base) requireManager(mgr, alternative string) (core.InstallReport, bool) {
	if _, ok := b.lookPath(mgr); ok {
		return core.InstallReport{}, true
	}
	return core.Failed(b.name,
		fmt.Sprintf("%s is not installed, cannot install %s", mgr, b.display),
		fmt.Sprintf("install %s first or set install_via: %s", mgr, alternative)), false
}

func orUnknown(version string) string {
	if version == "" {
		return "unknown"
	}
	return version
}

// errText picks the most useful error string out of a command result:
// stderr when present, the exit code otherwise.
func errText(result core.RunResult) string {
	if s := strings.TrimSpace(result.Stderr); s != "" {
		return s
	}
	return fmt.Sprintf("command exited with code %d", result.ExitCode)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// tempScript reserves a temp file path for a downloaded install script.
// The caller removes it when done.
func tempScript(pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

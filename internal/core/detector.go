package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// detectTimeout bounds a single version probe.
const detectTimeout = 5 * time.Second

// probe describes how to check one tool: the executable to look up and the
// argument that makes it print a version.
type probe struct {
	command    string
	versionArg string
}

var probes = map[string]probe{
	"node":        {"node", "--version"},
	"conda":       {"conda", "--version"},
	"bun":         {"bun", "--version"},
	"uv":          {"uv", "--version"},
	"claude-code": {"claude", "--version"},
	"copilot-cli": {"copilot", "--version"},
	"codex":       {"codex", "--version"},
	"opencode":    {"opencode", "--version"},
	"npx":         {"npx", "--version"},
	"uipro":       {"uipro", "versions"},
	"spec-kit":    {"specify", "version"},
	"bmad-method": {"bmad", "--version"},
	"gh":          {"gh", "--version"},
}

// detectOrder fixes the iteration order for DetectAll output.
var detectOrder = []string{
	"nvm", "node", "conda", "bun", "uv",
	"claude-code", "copilot-cli", "codex", "opencode",
	"npx", "uipro", "spec-kit", "bmad-method",
}

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`v?(\d+\.\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)version\s+v?(\d+\.\d+\.\d+)`),
	regexp.MustCompile(`(\d+\.\d+\.\d+)`),
}

// DetectOrder returns the display order for full tool detection.
func DetectOrder() []string {
	return append([]string(nil), detectOrder...)
}

// Detector probes PATH and version commands to report what is installed.
// It answers "what is here right now", not "what did we just do".
type Detector struct {
	runner Runner
	home   string

	// lookPath overrides PATH resolution in tests. Nil means the real PATH.
	lookPath func(name string) (string, bool)
}

// NewDetector creates a Detector probing through runner.
func NewDetector(runner Runner) *Detector {
	home, _ := os.UserHomeDir()
	return &Detector{runner: runner, home: home}
}

// NewDetectorWithHome creates a Detector with an explicit home directory.
// Useful for testing.
func NewDetectorWithHome(runner Runner, home string) *Detector {
	return &Detector{runner: runner, home: home}
}

func (d *Detector) which(name string) (string, bool) {
	if d.lookPath != nil {
		return d.lookPath(name)
	}
	return LookPath(name)
}

// Probe checks a single tool by name.
func (d *Detector) Probe(ctx context.Context, name string) ToolStatus {
	if name == "nvm" {
		return d.probeNVM(ctx)
	}

	p, ok := probes[name]
	if !ok {
		return ToolStatus{Name: name}
	}

	path, found := d.which(p.command)
	if !found {
		return ToolStatus{Name: name}
	}

	version := d.commandVersion(ctx, p.command, p.versionArg)
	return ToolStatus{Name: name, Installed: true, Version: version, Path: path}
}

// probeNVM handles nvm, which is a shell function rather than a binary:
// presence means ~/.nvm/nvm.sh exists, version comes from sourcing it.
func (d *Detector) probeNVM(ctx context.Context) ToolStatus {
	nvmSh := filepath.Join(d.home, ".nvm", "nvm.sh")
	if !pathExists(nvmSh) {
		return ToolStatus{Name: "nvm"}
	}

	status := ToolStatus{Name: "nvm", Installed: true, Path: nvmSh}
	cmd := fmt.Sprintf("source %s && nvm --version", nvmSh)
	result, err := d.runner.Run(ctx, cmd, RunOptions{Timeout: detectTimeout, Retries: 1})
	if err == nil && result.ExitCode == 0 {
		status.Version = strings.TrimSpace(result.Stdout)
	}
	return status
}

// commandVersion runs `<command> <arg>` and extracts a version from its
// combined output. Returns an empty string when nothing matches.
func (d *Detector) commandVersion(ctx context.Context, command, arg string) string {
	result, err := d.runner.Run(ctx, command+" "+arg, RunOptions{Timeout: detectTimeout, Retries: 1})
	if err != nil {
		return ""
	}
	return VersionFromOutput(result.Stdout + result.Stderr)
}

// VersionFromOutput extracts a semantic version from command output,
// falling back to the first non-empty line.
func VersionFromOutput(output string) string {
	for _, p := range versionPatterns {
		if m := p.FindStringSubmatch(output); m != nil {
			return m[1]
		}
	}
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return ""
	}
	return strings.SplitN(trimmed, "\n", 2)[0]
}

// DetectAll probes every known tool, keyed by tool name.
func (d *Detector) DetectAll(ctx context.Context) map[string]ToolStatus {
	statuses := make(map[string]ToolStatus, len(detectOrder))
	for _, name := range detectOrder {
		statuses[name] = d.Probe(ctx, name)
	}
	return statuses
}

// MirrorTools probes the tools whose registries we can point at a mirror.
// npm rides along with node.
func (d *Detector) MirrorTools(ctx context.Context) map[string]ToolStatus {
	return map[string]ToolStatus{
		"npm":   d.Probe(ctx, "node"),
		"bun":   d.Probe(ctx, "bun"),
		"pip":   d.probePip(ctx),
		"uv":    d.Probe(ctx, "uv"),
		"conda": d.Probe(ctx, "conda"),
	}
}

// probePip prefers pip3 and falls back to pip.
func (d *Detector) probePip(ctx context.Context) ToolStatus {
	for _, cmd := range []string{"pip3", "pip"} {
		if path, found := d.which(cmd); found {
			version := d.commandVersion(ctx, cmd, "--version")
			return ToolStatus{Name: "pip", Installed: true, Version: version, Path: path}
		}
	}
	return ToolStatus{Name: "pip"}
}

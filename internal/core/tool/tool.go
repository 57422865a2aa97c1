// Package tool defines the installer abstraction for mono-kickstart.
//
// A Tool knows how to install, upgrade, and verify exactly one external
// developer tool (nvm, Bun, Claude Code, ...). Each tool registers a
// constructor in the package registry; the orchestrator resolves tools by
// name through the lookup table and never constructs them directly.
package tool

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/monokickstart/mk/internal/core"
)

// Tool is the uniform contract for one external tool. Install and Upgrade
// always return a report: failures are expressed through the FAILED result,
// never through panics or errors crossing the boundary.
type Tool interface {
	// Name is the machine name reports are keyed by: "nvm", "claude-code".
	Name() string

	// Install makes the tool available. Already-present tools yield a
	// SKIPPED report with the current version and no side effects.
	Install(ctx context.Context) core.InstallReport

	// Upgrade moves an installed tool forward, reporting the old -> new
	// version transition. Absent tools yield FAILED.
	Upgrade(ctx context.Context) core.InstallReport

	// Verify is an idempotent, side-effect-free presence check.
	Verify(ctx context.Context) bool

	// InstalledVersion returns the detected version, or "" when unknown.
	InstalledVersion(ctx context.Context) string
}

// Fetcher downloads a URL to a local file, reporting success as a boolean.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) bool
}

// Deps carries everything an installer needs. The orchestrator builds one
// Deps per tool from the merged config.
type Deps struct {
	Platform core.Platform
	Config   core.ToolConfig
	Registry core.RegistryConfig
	Runner   core.Runner
	Fetcher  Fetcher
	Log      *log.Logger
	Home     string

	// LookPath overrides PATH resolution in tests. Nil means the real PATH.
	LookPath func(name string) (string, bool)
}

// Constructor builds a Tool from its dependencies.
type Constructor func(Deps) Tool

var registry = map[string]Constructor{}

// Register adds a tool constructor under name. Called from init() in each
// tool file.
func Register(name string, fn Constructor) { registry[name] = fn }

// New resolves name through the registry. The second return is false for
// unknown names.
func New(name string, deps Deps) (Tool, bool) {
	fn, ok := registry[name]
	if !ok {
		return nil, false
	}
	return fn(deps), true
}

// Known reports whether a tool name is registered.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names returns all registered tool names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

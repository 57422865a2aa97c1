package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// InstallOrder is the dependency-sorted list of tools that `mk init`
// installs. nvm must precede node and uv must precede spec-kit; the rest
// of the ordering is convention.
var InstallOrder = []string{
	"nvm",
	"node",
	"conda",
	"bun",
	"uv",
	"claude-code",
	"copilot-cli",
	"codex",
	"opencode",
	"spec-kit",
	"bmad-method",
}

// extraTools can be installed individually with `mk install <tool>` but are
// not part of the init sequence.
var extraTools = []string{"gh", "uipro"}

// KnownTool reports whether name is a tool mk can install or upgrade.
func KnownTool(name string) bool {
	for _, t := range InstallOrder {
		if t == name {
			return true
		}
	}
	for _, t := range extraTools {
		if t == name {
			return true
		}
	}
	return false
}

// KnownTools returns every installable tool name, sorted.
func KnownTools() []string {
	names := make([]string, 0, len(InstallOrder)+len(extraTools))
	names = append(names, InstallOrder...)
	names = append(names, extraTools...)
	sort.Strings(names)
	return names
}

// Installer performs the install and upgrade of a single tool. The concrete
// implementations live in the tool sub-package; the orchestrator only sees
// this interface so the two packages stay decoupled.
type Installer interface {
	Install(ctx context.Context) InstallReport
	Upgrade(ctx context.Context) InstallReport
}

// Factory builds the Installer for a tool name, or reports false when the
// name is unknown.
type Factory func(name string, cfg ToolConfig) (Installer, bool)

// MirrorSetup configures package-manager registries once the owning tool is
// installed. Implemented by MirrorConfigurator; faked in tests.
type MirrorSetup interface {
	ConfigureNPM(ctx context.Context) bool
	ConfigureBun() bool
	ConfigureUV() bool
}

// ProjectScaffold lays out the monorepo skeleton in the working directory.
type ProjectScaffold interface {
	Create(name string, force bool) error
}

// Orchestrator drives the init and upgrade flows: it resolves which tools
// are enabled, runs their installers in dependency order, configures
// mirrors for the package managers that arrived, and scaffolds the project.
// A failing tool never aborts the run; every outcome lands in the report map.
type Orchestrator struct {
	order    []string
	config   *Config
	platform Platform
	factory  Factory
	detector *Detector
	mirrors  MirrorSetup
	scaffold ProjectScaffold
	log      *log.Logger
	out      io.Writer
	workDir  string
	dryRun   bool
}

// OrchestratorOptions configures an Orchestrator. Zero fields fall back to
// sensible defaults; Factory is required for any real install work.
type OrchestratorOptions struct {
	Order    []string // install order; nil means InstallOrder
	Config   *Config
	Platform Platform
	Factory  Factory
	Detector *Detector
	Mirrors  MirrorSetup
	Scaffold ProjectScaffold
	Log      *log.Logger
	Out      io.Writer // summary destination; nil means os.Stdout
	WorkDir  string
	DryRun   bool
}

// NewOrchestrator creates an Orchestrator from opts.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	o := &Orchestrator{
		order:    opts.Order,
		config:   opts.Config,
		platform: opts.Platform,
		factory:  opts.Factory,
		detector: opts.Detector,
		mirrors:  opts.Mirrors,
		scaffold: opts.Scaffold,
		log:      opts.Log,
		out:      opts.Out,
		workDir:  opts.WorkDir,
		dryRun:   opts.DryRun,
	}
	if o.order == nil {
		o.order = InstallOrder
	}
	if o.config == nil {
		o.config = NewConfig()
	}
	if o.log == nil {
		o.log = log.New(io.Discard)
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	if o.workDir == "" {
		o.workDir, _ = os.Getwd()
	}
	return o
}

// Plan returns the tools the next InstallAll will attempt, in order. A tool
// is planned only when the configuration lists it with enabled: true;
// unlisted tools are not planned.
func (o *Orchestrator) Plan() []string {
	var enabled []string
	for _, name := range o.order {
		if tc, ok := o.config.Tools[name]; ok && tc.Enabled {
			enabled = append(enabled, name)
		}
	}
	return enabled
}

// InstallTool installs a single tool and always returns a report, even for
// unknown names. In dry-run mode it reports what would happen without
// constructing an installer.
func (o *Orchestrator) InstallTool(ctx context.Context, name string) InstallReport {
	if o.dryRun {
		return Skipped(name, "", fmt.Sprintf("[dry-run] would install %s", name))
	}
	installer, ok := o.newInstaller(name)
	if !ok {
		return unknownToolReport(name)
	}
	return installer.Install(ctx)
}

// UpgradeTool upgrades a single tool, with the same contract as InstallTool.
func (o *Orchestrator) UpgradeTool(ctx context.Context, name string) InstallReport {
	if o.dryRun {
		return Skipped(name, "", fmt.Sprintf("[dry-run] would upgrade %s", name))
	}
	installer, ok := o.newInstaller(name)
	if !ok {
		return unknownToolReport(name)
	}
	return installer.Upgrade(ctx)
}

func (o *Orchestrator) newInstaller(name string) (Installer, bool) {
	if o.factory == nil {
		return nil, false
	}
	cfg, ok := o.config.Tools[name]
	if !ok {
		cfg = ToolConfig{Enabled: true}
	}
	return o.factory(name, cfg)
}

func unknownToolReport(name string) InstallReport {
	return Failed(name,
		fmt.Sprintf("invalid tool name: %s", name),
		"tool is not in the supported list")
}

// InstallAll installs every planned tool in order. Failures are recorded
// and the run continues; only context cancellation stops the loop early.
func (o *Orchestrator) InstallAll(ctx context.Context) map[string]InstallReport {
	reports := make(map[string]InstallReport)
	for _, name := range o.Plan() {
		if ctx.Err() != nil {
			break
		}
		o.log.Info("installing", "tool", name)
		report := o.InstallTool(ctx, name)
		o.logReport(report)
		reports[name] = report
	}
	return reports
}

// RunInit is the full init flow.
// 1. Install every enabled tool in dependency order
// 2. Configure the npm, bun, and uv registries for the tools that landed
// 3. Scaffold the monorepo layout
// Mirror configuration only runs for a package manager whose tool install
// succeeded this run; dry-run skips both mirrors and scaffolding.
func (o *Orchestrator) RunInit(ctx context.Context, projectName string, force bool) map[string]InstallReport {
	// 1. Tools
	reports := o.InstallAll(ctx)

	// 2. Mirrors
	if o.mirrors != nil {
		if r, ok := reports["node"]; ok && r.Result == ResultSuccess {
			reports["npm-mirror"] = mirrorReport("npm-mirror", "npm", o.mirrors.ConfigureNPM(ctx))
		}
		if r, ok := reports["bun"]; ok && r.Result == ResultSuccess {
			reports["bun-mirror"] = mirrorReport("bun-mirror", "bun", o.mirrors.ConfigureBun())
		}
		if r, ok := reports["uv"]; ok && r.Result == ResultSuccess {
			reports["uv-mirror"] = mirrorReport("uv-mirror", "uv", o.mirrors.ConfigureUV())
		}
	}

	// 3. Project
	if !o.dryRun && o.scaffold != nil {
		name := o.projectName(projectName)
		if err := o.scaffold.Create(name, force); err != nil {
			reports["project"] = InstallReport{
				Tool:    "project",
				Result:  ResultFailed,
				Message: "project creation failed",
				Err:     err.Error(),
			}
		} else {
			reports["project"] = Succeeded("project", "", fmt.Sprintf("project %s created", name))
		}
	}

	return reports
}

func mirrorReport(name, manager string, ok bool) InstallReport {
	if ok {
		return Succeeded(name, "", fmt.Sprintf("%s registry configured", manager))
	}
	return InstallReport{
		Tool:    name,
		Result:  ResultFailed,
		Message: fmt.Sprintf("%s registry configuration failed", manager),
	}
}

// projectName resolves the scaffold name: CLI override, then the configured
// project name, then the working directory's base name.
func (o *Orchestrator) projectName(override string) string {
	if override != "" {
		return override
	}
	if o.config.Project.Name != "" {
		return o.config.Project.Name
	}
	return filepath.Base(o.workDir)
}

// RunUpgrade upgrades one named tool, or every installed known tool when
// name is empty. The named form returns exactly one report keyed by name.
func (o *Orchestrator) RunUpgrade(ctx context.Context, name string) map[string]InstallReport {
	reports := make(map[string]InstallReport)
	if name != "" {
		reports[name] = o.UpgradeTool(ctx, name)
		return reports
	}

	if o.detector == nil {
		return reports
	}
	statuses := o.detector.DetectAll(ctx)
	for _, tool := range detectOrder {
		if ctx.Err() != nil {
			break
		}
		status, ok := statuses[tool]
		if !ok || !status.Installed || !KnownTool(tool) {
			continue
		}
		o.log.Info("upgrading", "tool", tool)
		report := o.UpgradeTool(ctx, tool)
		o.logReport(report)
		reports[tool] = report
	}
	return reports
}

func (o *Orchestrator) logReport(report InstallReport) {
	switch report.Result {
	case ResultSuccess:
		o.log.Info(report.Message, "tool", report.Tool)
	case ResultSkipped:
		o.log.Info(report.Message, "tool", report.Tool)
	case ResultFailed:
		o.log.Error(report.Message, "tool", report.Tool, "err", report.Err)
	}
}

// AllFailed reports whether every report in a non-empty run failed. The
// init command maps this to its own exit code.
func AllFailed(reports map[string]InstallReport) bool {
	if len(reports) == 0 {
		return false
	}
	for _, r := range reports {
		if r.Result != ResultFailed {
			return false
		}
	}
	return true
}

// Summary writes the success/skip/failure breakdown of a run to the
// orchestrator's output writer.
func (o *Orchestrator) Summary(reports map[string]InstallReport) {
	var succeeded, skipped, failed []InstallReport
	for _, name := range summaryOrder(reports) {
		r := reports[name]
		switch r.Result {
		case ResultSuccess:
			succeeded = append(succeeded, r)
		case ResultSkipped:
			skipped = append(skipped, r)
		case ResultFailed:
			failed = append(failed, r)
		}
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(o.out, "\n%s\n", rule)
	fmt.Fprintln(o.out, "Summary")
	fmt.Fprintln(o.out, rule)

	if len(succeeded) > 0 {
		fmt.Fprintf(o.out, "\n✓ succeeded (%d):\n", len(succeeded))
		for _, r := range succeeded {
			fmt.Fprintf(o.out, "  - %s%s: %s\n", r.Tool, versionSuffix(r), r.Message)
		}
	}
	if len(skipped) > 0 {
		fmt.Fprintf(o.out, "\n○ skipped (%d):\n", len(skipped))
		for _, r := range skipped {
			fmt.Fprintf(o.out, "  - %s%s: %s\n", r.Tool, versionSuffix(r), r.Message)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(o.out, "\n✗ failed (%d):\n", len(failed))
		for _, r := range failed {
			fmt.Fprintf(o.out, "  - %s: %s\n", r.Tool, r.Message)
			if r.Err != "" {
				fmt.Fprintf(o.out, "    error: %s\n", r.Err)
			}
		}
	}

	fmt.Fprintf(o.out, "\n%s\n", rule)
	fmt.Fprintf(o.out, "Total: %d tasks (%d succeeded, %d skipped, %d failed)\n",
		len(reports), len(succeeded), len(skipped), len(failed))
	fmt.Fprintln(o.out, rule)
}

func versionSuffix(r InstallReport) string {
	if r.Version == "" {
		return ""
	}
	return fmt.Sprintf(" (v%s)", r.Version)
}

// summaryOrder returns report keys in a stable presentation order: the
// install order first, then the synthetic init steps, then anything else
// sorted by name.
func summaryOrder(reports map[string]InstallReport) []string {
	seen := make(map[string]bool, len(reports))
	var names []string
	add := func(name string) {
		if _, ok := reports[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range InstallOrder {
		add(name)
	}
	for _, name := range []string{"npm-mirror", "bun-mirror", "uv-mirror", "project"} {
		add(name)
	}
	var rest []string
	for name := range reports {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)
	return names
}

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/monokickstart/mk/internal/core"
	"github.com/monokickstart/mk/internal/core/tool"
)

// deps bundles the collaborators shared by every command. Built per
// invocation, after flag parsing, so the logger level reflects --verbose.
type deps struct {
	log      *log.Logger
	runner   core.Runner
	fetcher  *core.Downloader
	platform core.Platform
	home     string
	workDir  string
}

func newDeps() (*deps, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	logger := core.NewLogger(os.Stderr, logLevel())
	return &deps{
		log:      logger,
		runner:   core.NewShellRunner(logger),
		fetcher:  core.NewDownloader(logger),
		platform: core.DetectPlatform(),
		home:     home,
		workDir:  workDir,
	}, nil
}

// logLevel honors --verbose first, then the MK_LOG environment variable.
func logLevel() log.Level {
	if verbose {
		return log.DebugLevel
	}
	if lvl, err := log.ParseLevel(os.Getenv("MK_LOG")); err == nil && os.Getenv("MK_LOG") != "" {
		return lvl
	}
	return log.InfoLevel
}

// checkPlatform rejects OS/arch combinations the installers cannot handle.
func (d *deps) checkPlatform() error {
	if !d.platform.Supported() {
		return core.PlatformError(d.platform)
	}
	return nil
}

// loadConfig assembles the layered configuration, with cliPath as the
// highest layer when non-empty.
func (d *deps) loadConfig(cliPath string) (*core.Config, error) {
	cm := core.NewConfigManagerWithDirs(d.home, d.workDir)
	return cm.LoadWithPriority(cliPath)
}

// configManager returns a manager rooted at this invocation's directories.
func (d *deps) configManager() *core.ConfigManager {
	return core.NewConfigManagerWithDirs(d.home, d.workDir)
}

// validateConfig turns Validate problems into a single config error listing
// every finding as a hint.
func (d *deps) validateConfig(cfg *core.Config) error {
	problems := core.Validate(cfg)
	if len(problems) == 0 {
		return nil
	}
	return &core.Error{
		Message:     "invalid configuration",
		Code:        core.ExitConfig,
		Suggestions: problems,
	}
}

// toolFactory adapts the tool registry to the orchestrator's factory shape.
func (d *deps) toolFactory(cfg *core.Config) core.Factory {
	return func(name string, tc core.ToolConfig) (core.Installer, bool) {
		t, ok := tool.New(name, tool.Deps{
			Platform: d.platform,
			Config:   tc,
			Registry: cfg.Registry,
			Runner:   d.runner,
			Fetcher:  d.fetcher,
			Log:      d.log,
			Home:     d.home,
		})
		if !ok {
			return nil, false
		}
		return t, true
	}
}

// newOrchestrator wires an Orchestrator with the real detector, mirror
// configurator, and project scaffold.
func (d *deps) newOrchestrator(cfg *core.Config, dryRun bool) *core.Orchestrator {
	return core.NewOrchestrator(core.OrchestratorOptions{
		Config:   cfg,
		Platform: d.platform,
		Factory:  d.toolFactory(cfg),
		Detector: core.NewDetectorWithHome(d.runner, d.home),
		Mirrors:  core.NewMirrorConfigurator(cfg.Registry, d.runner, d.home),
		Scaffold: core.NewProjectCreator(d.workDir, d.runner),
		Log:      d.log,
		Out:      os.Stdout,
		WorkDir:  d.workDir,
		DryRun:   dryRun,
	})
}

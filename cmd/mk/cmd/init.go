package cmd

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
	"github.com/monokickstart/mk/internal/tui"
)

var (
	initConfigPath  string
	initSaveConfig  bool
	initInteractive bool
	initForce       bool
	initDryRun      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the toolchain, configure mirrors, and scaffold the monorepo",
	Long: `init runs the full bootstrap: every enabled tool is installed in
dependency order, package registries are pointed at the configured
mirrors, and a pnpm workspace skeleton is created in the current
directory.

Tools that are already present are skipped. A failing tool never stops
the run; the summary at the end lists every outcome.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		if err := d.checkPlatform(); err != nil {
			return err
		}

		cfg, err := d.loadConfig(initConfigPath)
		if err != nil {
			return err
		}
		if err := d.validateConfig(cfg); err != nil {
			return err
		}

		ctx := cmd.Context()
		if initInteractive {
			detected := core.NewDetectorWithHome(d.runner, d.home).DetectAll(ctx)
			sel, err := tui.RunInitWizard(cfg, detected, defaultProjectName(d.workDir))
			if errors.Is(err, tui.ErrAborted) {
				d.log.Info("init cancelled, nothing was changed")
				return nil
			}
			if err != nil {
				d.log.Warn("wizard unavailable, continuing with configuration defaults", "err", err)
			} else {
				applySelections(cfg, sel)
			}
		}

		if initSaveConfig {
			cm := d.configManager()
			path := cm.ProjectConfigPath()
			if err := cm.Save(cfg, path); err != nil {
				return err
			}
			d.log.Info("configuration saved", "path", path)
		}

		orch := d.newOrchestrator(cfg, initDryRun)
		reports := orch.RunInit(ctx, "", initForce)
		orch.Summary(reports)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if core.AllFailed(reports) {
			return &core.Error{
				Message: "all tool installations failed",
				Code:    core.ExitAllFailed,
				Suggestions: []string{
					"check your network connection",
					"run with --verbose for command output",
				},
			}
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initConfigPath, "config", "", "Path to a config file layered over ~/.kickstartrc and ./.kickstartrc")
	initCmd.Flags().BoolVar(&initSaveConfig, "save-config", false, "Write the effective config to ./.kickstartrc before installing")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Pick tools and versions in a wizard before installing")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Scaffold into a non-empty project directory")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Print the plan without installing anything")
	rootCmd.AddCommand(initCmd)
}

// applySelections folds wizard answers back into the config so the
// orchestrator and a later --save-config both see them.
func applySelections(cfg *core.Config, sel tui.Selections) {
	if sel.ProjectName != "" {
		cfg.Project.Name = sel.ProjectName
	}
	if cfg.Tools == nil {
		cfg.Tools = map[string]core.ToolConfig{}
	}
	for name, enabled := range sel.Tools {
		tc := cfg.Tools[name]
		tc.Enabled = enabled
		cfg.Tools[name] = tc
	}
	if sel.Tools["node"] {
		tc := cfg.Tools["node"]
		// "lts" is the default and stays implicit in saved configs.
		if sel.NodeVersion == "lts" {
			tc.Version = ""
		} else {
			tc.Version = sel.NodeVersion
		}
		cfg.Tools["node"] = tc
	}
	if sel.Tools["conda"] && sel.PythonVersion != "" {
		tc := cfg.Tools["conda"]
		if tc.ExtraOptions == nil {
			tc.ExtraOptions = map[string]string{}
		}
		tc.ExtraOptions["python_version"] = sel.PythonVersion
		cfg.Tools["conda"] = tc
	}
	if reg, ok := core.RegistryPreset(sel.MirrorPreset); ok {
		cfg.Registry = reg
	}
}

// defaultProjectName suggests the working directory's base name.
func defaultProjectName(workDir string) string {
	base := filepath.Base(workDir)
	if base == "" || base == "." || base == "/" {
		return "my-monorepo"
	}
	return base
}

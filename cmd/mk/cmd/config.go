package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
	"github.com/monokickstart/mk/internal/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mk configuration",
}

var configMirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Manage package registry mirrors",
	Long: `mirror points npm, bun, uv, pip, and conda at alternative package
registries. The china preset selects mirrors that are fast from
mainland China; default restores the upstream registries.`,
}

var configMirrorShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured registry for each package manager",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		cfg, err := d.loadConfig("")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		mirrors := core.NewMirrorConfigurator(cfg.Registry, d.runner, d.home)
		statuses := mirrors.Status(ctx)
		tools := core.NewDetectorWithHome(d.runner, d.home).MirrorTools(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMirrorStatus(statuses, tools))
		return nil
	},
}

var configMirrorSetCmd = &cobra.Command{
	Use:   "set <tool|preset> [url]",
	Short: "Point a package manager (or all of them) at a mirror",
	Long: `set configures one package manager's registry, or applies a preset
across all of them.

Targets: ` + strings.Join(core.MirrorTargets, ", ") + ` (one manager), or the presets
china and default (all managers). A custom URL is only valid with a
single manager.`,
	Args: usageArgs(cobra.RangeArgs(1, 2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		url := ""
		if len(args) == 2 {
			url = args[1]
		}

		preset, isPreset := core.RegistryPreset(target)
		if !isPreset && !mirrorTarget(target) {
			return usageError(fmt.Sprintf("unknown mirror target: %s", target),
				"targets: "+strings.Join(core.MirrorTargets, ", ")+", china, default")
		}
		if isPreset && url != "" {
			return usageError("presets do not take a URL",
				fmt.Sprintf("set one manager instead: mk config mirror set npm %s", url))
		}

		d, err := newDeps()
		if err != nil {
			return err
		}
		cfg, err := d.loadConfig("")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if isPreset {
			mirrors := core.NewMirrorConfigurator(preset, d.runner, d.home)
			failures := 0
			for _, tool := range core.MirrorTargets {
				if mirrors.Configure(ctx, tool) {
					d.log.Info("mirror configured", "tool", tool)
				} else {
					failures++
					d.log.Error("mirror configuration failed", "tool", tool)
				}
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if failures == len(core.MirrorTargets) {
				return &core.Error{
					Message: "no mirror could be configured",
					Code:    core.ExitGeneral,
					Suggestions: []string{
						"package managers must be installed before their registry can be set",
						"run 'mk show info' to see what is installed",
					},
				}
			}
			return nil
		}

		registry := cfg.Registry
		if url != "" {
			applyMirrorOverride(&registry, target, url)
		}
		mirrors := core.NewMirrorConfigurator(registry, d.runner, d.home)
		if !mirrors.Configure(ctx, target) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &core.Error{
				Message: fmt.Sprintf("configuring the %s registry failed", target),
				Code:    core.ExitGeneral,
				Suggestions: []string{
					fmt.Sprintf("is %s installed? run 'mk show info'", target),
				},
			}
		}
		d.log.Info("mirror configured", "tool", target)
		return nil
	},
}

var configMirrorResetCmd = &cobra.Command{
	Use:   "reset <tool|all>",
	Short: "Restore a package manager's registry to its upstream default",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if target != "all" && !mirrorTarget(target) {
			return usageError(fmt.Sprintf("unknown mirror target: %s", target),
				"targets: "+strings.Join(core.MirrorTargets, ", ")+", all")
		}

		d, err := newDeps()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		mirrors := core.NewMirrorConfigurator(core.UpstreamRegistry(), d.runner, d.home)

		targets := []string{target}
		if target == "all" {
			targets = core.MirrorTargets
		}
		failures := 0
		for _, tool := range targets {
			if mirrors.Reset(ctx, tool) {
				d.log.Info("mirror reset", "tool", tool)
			} else {
				failures++
				d.log.Error("mirror reset failed", "tool", tool)
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if failures == len(targets) {
			return &core.Error{
				Message: "mirror reset failed",
				Code:    core.ExitGeneral,
			}
		}
		return nil
	},
}

func init() {
	configMirrorCmd.AddCommand(configMirrorShowCmd)
	configMirrorCmd.AddCommand(configMirrorSetCmd)
	configMirrorCmd.AddCommand(configMirrorResetCmd)
	configCmd.AddCommand(configMirrorCmd)
	rootCmd.AddCommand(configCmd)
}

// mirrorTarget reports whether name is one of the configurable managers.
func mirrorTarget(name string) bool {
	for _, t := range core.MirrorTargets {
		if t == name {
			return true
		}
	}
	return false
}

// applyMirrorOverride points the registry field backing one manager at a
// custom URL. uv and pip share the PyPI index.
func applyMirrorOverride(registry *core.RegistryConfig, tool, url string) {
	switch tool {
	case "npm":
		registry.NPM = url
	case "bun":
		registry.Bun = url
	case "pip", "uv":
		registry.PyPI = url
	case "conda":
		registry.Conda = url
	}
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

var (
	installAll        bool
	installConfigPath string
	installDryRun     bool
)

var installCmd = &cobra.Command{
	Use:   "install [tool]",
	Short: "Install one tool, or every enabled tool with --all",
	Long: `install runs a single tool's installer, or with --all the whole
enabled set in dependency order. Tools that are already present are
skipped with their current version.

Supported tools: ` + strings.Join(core.KnownTools(), ", ") + `.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !installAll {
			return usageError("nothing to install: name a tool or pass --all",
				"supported tools: "+strings.Join(core.KnownTools(), ", "))
		}
		if len(args) == 1 && installAll {
			return usageError("--all cannot be combined with a tool name")
		}
		if len(args) == 1 && !core.KnownTool(args[0]) {
			return usageError(fmt.Sprintf("unknown tool: %s", args[0]),
				"supported tools: "+strings.Join(core.KnownTools(), ", "))
		}

		d, err := newDeps()
		if err != nil {
			return err
		}
		if err := d.checkPlatform(); err != nil {
			return err
		}
		cfg, err := d.loadConfig(installConfigPath)
		if err != nil {
			return err
		}
		if err := d.validateConfig(cfg); err != nil {
			return err
		}

		ctx := cmd.Context()
		orch := d.newOrchestrator(cfg, installDryRun)

		var reports map[string]core.InstallReport
		if installAll {
			reports = orch.InstallAll(ctx)
		} else {
			name := args[0]
			reports = map[string]core.InstallReport{name: orch.InstallTool(ctx, name)}
		}
		orch.Summary(reports)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if core.AllFailed(reports) {
			return &core.Error{
				Message: "installation failed",
				Code:    core.ExitAllFailed,
				Suggestions: []string{
					"run with --verbose for command output",
				},
			}
		}
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVar(&installAll, "all", false, "Install every enabled tool in dependency order")
	installCmd.Flags().StringVar(&installConfigPath, "config", "", "Path to a config file layered over ~/.kickstartrc and ./.kickstartrc")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Print what would be installed without installing")
	rootCmd.AddCommand(installCmd)
}

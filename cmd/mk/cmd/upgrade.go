package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

var (
	upgradeAll        bool
	upgradeConfigPath string
	upgradeDryRun     bool
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [tool]",
	Short: "Upgrade one installed tool, or every installed tool with --all",
	Long: `upgrade moves an installed tool to its latest version, reporting the
old and new versions. With --all, every detected tool that mk knows how
to manage is upgraded; tools that are not installed are left alone.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !upgradeAll {
			return usageError("nothing to upgrade: name a tool or pass --all",
				"supported tools: "+strings.Join(core.KnownTools(), ", "))
		}
		if len(args) == 1 && upgradeAll {
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
		cfg, err := d.loadConfig(upgradeConfigPath)
		if err != nil {
			return err
		}
		if err := d.validateConfig(cfg); err != nil {
			return err
		}

		ctx := cmd.Context()
		orch := d.newOrchestrator(cfg, upgradeDryRun)

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		reports := orch.RunUpgrade(ctx, name)
		if upgradeAll && len(reports) == 0 {
			d.log.Info("no tools installed, nothing to upgrade")
			return nil
		}
		orch.Summary(reports)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if core.AllFailed(reports) {
			return &core.Error{
				Message: "upgrade failed",
				Code:    core.ExitAllFailed,
				Suggestions: []string{
					"run 'mk show info' to see what is installed",
					"run with --verbose for command output",
				},
			}
		}
		return nil
	},
}

func init() {
	upgradeCmd.Flags().BoolVar(&upgradeAll, "all", false, "Upgrade every installed tool")
	upgradeCmd.Flags().StringVar(&upgradeConfigPath, "config", "", "Path to a config file layered over ~/.kickstartrc and ./.kickstartrc")
	upgradeCmd.Flags().BoolVar(&upgradeDryRun, "dry-run", false, "Print what would be upgraded without upgrading")
	rootCmd.AddCommand(upgradeCmd)
}

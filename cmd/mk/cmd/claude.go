package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

var (
	claudeMCP    string
	claudeAllow  string
	claudeMode   string
	claudeOff    string
	claudeOn     string
	claudeSkills string
	claudePlugin string
	claudeDryRun bool
)

var claudeCmd = &cobra.Command{
	Use:   "claude",
	Short: "Configure Claude Code for the current project",
	Long: `claude edits .claude/settings.local.json in the working directory:
registering MCP servers, widening permissions, toggling feature flags,
and installing skills and plugins through their provider CLIs.

At least one flag is required; flags combine and apply in order.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateClaudeFlags(); err != nil {
			return err
		}
		if claudeMCP == "" && claudeAllow == "" && claudeMode == "" &&
			claudeOff == "" && claudeOn == "" && claudeSkills == "" && claudePlugin == "" {
			return &core.Error{
				Message: "nothing to configure",
				Code:    core.ExitGeneral,
				Suggestions: []string{
					"add an MCP server: mk claude --mcp chrome",
					"widen permissions: mk claude --allow all",
					"install a plugin: mk claude --plugin omc",
				},
			}
		}

		d, err := newDeps()
		if err != nil {
			return err
		}
		settings := core.NewClaudeSettings(d.workDir, d.runner, d.log, claudeDryRun)
		ctx := cmd.Context()

		if claudeMCP != "" {
			if err := settings.AddMCPServer(ctx, claudeMCP); err != nil {
				return err
			}
		}
		if claudeAllow != "" {
			if err := settings.AllowAll(); err != nil {
				return err
			}
		}
		if claudeMode != "" {
			if err := settings.SetPermissionMode(claudeMode); err != nil {
				return err
			}
		}
		if claudeOff != "" {
			if err := settings.SetFeature(claudeOff, false); err != nil {
				return err
			}
		}
		if claudeOn != "" {
			if err := settings.SetFeature(claudeOn, true); err != nil {
				return err
			}
		}
		if claudeSkills != "" {
			if err := settings.InstallSkill(ctx, claudeSkills); err != nil {
				return err
			}
		}
		if claudePlugin != "" {
			if err := settings.InstallPlugin(ctx, claudePlugin); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	claudeCmd.Flags().StringVar(&claudeMCP, "mcp", "", "Register an MCP server (chrome or context7)")
	claudeCmd.Flags().StringVar(&claudeAllow, "allow", "", "Permission scope to grant (only: all)")
	claudeCmd.Flags().StringVar(&claudeMode, "mode", "", "Permission mode to set (only: plan)")
	claudeCmd.Flags().StringVar(&claudeOff, "off", "", "Feature to disable (suggestion or team)")
	claudeCmd.Flags().StringVar(&claudeOn, "on", "", "Feature to enable (only: team)")
	claudeCmd.Flags().StringVar(&claudeSkills, "skills", "", "Skill to install (only: uipro)")
	claudeCmd.Flags().StringVar(&claudePlugin, "plugin", "", "Plugin to install (only: omc)")
	claudeCmd.Flags().BoolVar(&claudeDryRun, "dry-run", false, "Print planned edits without writing or running anything")
	rootCmd.AddCommand(claudeCmd)
}

// validateClaudeFlags rejects values outside each flag's closed set before
// anything touches the filesystem.
func validateClaudeFlags() error {
	check := func(flag, value string, valid ...string) error {
		if value == "" {
			return nil
		}
		for _, v := range valid {
			if value == v {
				return nil
			}
		}
		return usageError(fmt.Sprintf("invalid value for --%s: %s", flag, value),
			"valid values: "+strings.Join(valid, ", "))
	}
	if err := check("mcp", claudeMCP, "chrome", "context7"); err != nil {
		return err
	}
	if err := check("allow", claudeAllow, "all"); err != nil {
		return err
	}
	if err := check("mode", claudeMode, "plan"); err != nil {
		return err
	}
	if err := check("off", claudeOff, "suggestion", "team"); err != nil {
		return err
	}
	if err := check("on", claudeOn, "team"); err != nil {
		return err
	}
	if err := check("skills", claudeSkills, "uipro"); err != nil {
		return err
	}
	return check("plugin", claudePlugin, "omc")
}

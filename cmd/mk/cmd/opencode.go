package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

var (
	opencodePlugin string
	opencodeDryRun bool
)

var opencodeCmd = &cobra.Command{
	Use:   "opencode",
	Short: "Configure the opencode CLI for the current project",
	Long: `opencode registers a plugin in the global opencode configuration and
drops its project-local config skeleton. The opencode CLI itself must
already be installed.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if opencodePlugin == "" {
			return &core.Error{
				Message: "nothing to configure",
				Code:    core.ExitGeneral,
				Suggestions: []string{
					"install a plugin: mk opencode --plugin omo",
				},
			}
		}
		if _, ok := core.OpenCodePlugins[opencodePlugin]; !ok {
			return usageError(fmt.Sprintf("unknown plugin: %s", opencodePlugin),
				"valid values: omo")
		}

		d, err := newDeps()
		if err != nil {
			return err
		}
		configurator := core.NewOpenCodeConfigurator(d.workDir, d.home, d.runner, d.log, opencodeDryRun)
		return configurator.InstallPlugin(cmd.Context(), opencodePlugin)
	},
}

func init() {
	opencodeCmd.Flags().StringVar(&opencodePlugin, "plugin", "", "Plugin to install (only: omo)")
	opencodeCmd.Flags().BoolVar(&opencodeDryRun, "dry-run", false, "Print planned edits without writing or running anything")
	rootCmd.AddCommand(opencodeCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core/tool"
)

var setDefaultCmd = &cobra.Command{
	Use:   "set-default node [version]",
	Short: "Set the default Node.js version for new shells",
	Long: `set-default points nvm's default alias at a version so new shells
start on it. The version defaults to the latest LTS release.`,
	Args: usageArgs(cobra.RangeArgs(1, 2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] != "node" {
			return usageError(fmt.Sprintf("unknown target: %s", args[0]),
				"supported targets: node")
		}
		version := "lts/*"
		if len(args) == 2 {
			version = args[1]
		}

		d, err := newDeps()
		if err != nil {
			return err
		}
		if err := tool.SetDefaultNodeVersion(cmd.Context(), d.runner, d.home, version); err != nil {
			return err
		}
		d.log.Info("default node version set", "version", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setDefaultCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "mk",
	Short: "Bootstrap a development machine and monorepo in one command",
	Long: `mono-kickstart sets up a machine for monorepo development: it installs
the toolchain (nvm, Node.js, Conda, Bun, uv, and the AI coding CLIs),
points package registries at fast mirrors, and scaffolds a pnpm
workspace skeleton.

Run 'mk init' for the full flow, or reach for the narrower commands
(install, upgrade, config mirror, claude, dd) as needed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mk %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)

	// Flag parse failures are usage errors, not general ones.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err.Error())
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx so an interrupt cancels
// in-flight installers and downloads.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// usageError wraps a bad invocation in the config/usage exit code.
func usageError(msg string, suggestions ...string) error {
	return &core.Error{Message: msg, Code: core.ExitConfig, Suggestions: suggestions}
}

// usageArgs makes positional-arg violations exit with the usage code.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(err.Error())
		}
		return nil
	}
}

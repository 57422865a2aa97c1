package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

var (
	downloadOutput string
	downloadDryRun bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <conda>",
	Short: "Download an installer artifact without running it",
	Long: `download fetches an installer script from the configured mirror so it
can be inspected or run by hand. Currently only the Miniconda installer
is supported.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] != "conda" {
			return usageError(fmt.Sprintf("unknown artifact: %s", args[0]),
				"supported artifacts: conda")
		}

		d, err := newDeps()
		if err != nil {
			return err
		}
		cfg, err := d.loadConfig("")
		if err != nil {
			return err
		}

		script := d.platform.MinicondaScript()
		if script == "" {
			return core.PlatformError(d.platform)
		}
		url := strings.TrimRight(cfg.Registry.Conda, "/") + "/miniconda/" + script

		outDir := downloadOutput
		if outDir == "" {
			outDir = d.workDir
		}
		if info, err := os.Stat(outDir); err == nil && !info.IsDir() {
			return &core.Error{
				Message: fmt.Sprintf("output path is a file: %s", outDir),
				Code:    core.ExitGeneral,
				Suggestions: []string{
					"pass a directory with -o",
				},
			}
		}
		dest := filepath.Join(outDir, script)

		if downloadDryRun {
			d.log.Info("[dry-run] would download", "url", url, "dest", dest)
			return nil
		}

		ctx := cmd.Context()
		if !d.fetcher.Fetch(ctx, url, dest) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return core.NetworkError(fmt.Sprintf("downloading %s failed", url))
		}

		size := int64(0)
		if info, err := os.Stat(dest); err == nil {
			size = info.Size()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s (%s)\n", dest, core.FormatSize(size))
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Directory to download into (default: current directory)")
	downloadCmd.Flags().BoolVar(&downloadDryRun, "dry-run", false, "Print the download plan without fetching")
	rootCmd.AddCommand(downloadCmd)
}

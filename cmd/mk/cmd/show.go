package cmd

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
	"github.com/monokickstart/mk/internal/tui"
)

// latestVersions is a static hint table used for upgrade advice. It is
// deliberately conservative: a tool missing here never produces advice.
var latestVersions = map[string]string{
	"nvm":   "0.40.4",
	"node":  "24.4.1",
	"bun":   "1.2.19",
	"uv":    "0.8.3",
	"conda": "25.5.1",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show environment information",
}

var showInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "List every managed tool with its installed version and path",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		detected := core.NewDetectorWithHome(d.runner, d.home).DetectAll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ordered := make([]core.ToolStatus, 0, len(detected))
		for _, name := range core.DetectOrder() {
			if status, ok := detected[name]; ok {
				ordered = append(ordered, status)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderToolStatus(ordered))

		if advice := upgradeAdvice(ordered); len(advice) > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
			for _, line := range advice {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		}
		return nil
	},
}

func init() {
	showCmd.AddCommand(showInfoCmd)
	rootCmd.AddCommand(showCmd)
}

// upgradeAdvice compares detected versions against the hint table and
// suggests the install or upgrade command for anything missing or behind.
func upgradeAdvice(statuses []core.ToolStatus) []string {
	var advice []string
	for _, status := range statuses {
		latest, ok := latestVersions[status.Name]
		if !ok {
			continue
		}
		if !status.Installed {
			if core.KnownTool(status.Name) {
				advice = append(advice, fmt.Sprintf("  %s is not installed, run: mk install %s", status.Name, status.Name))
			}
			continue
		}
		current, err := semver.NewVersion(strings.TrimPrefix(status.Version, "v"))
		if err != nil {
			continue
		}
		latestVer, err := semver.NewVersion(latest)
		if err != nil {
			continue
		}
		if latestVer.GreaterThan(current) {
			advice = append(advice, fmt.Sprintf("  %s can be upgraded, run: mk upgrade %s (v%s installed, v%s available)",
				status.Name, status.Name, current, latestVer))
		}
	}
	return advice
}

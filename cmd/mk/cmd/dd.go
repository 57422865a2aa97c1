package cmd

import (
	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

var (
	ddSpecKit bool
	ddBMad    bool
	ddClaude  bool
	ddCodex   bool
	ddForce   bool
	ddDryRun  bool
)

var ddCmd = &cobra.Command{
	Use:   "dd",
	Short: "Bootstrap spec-driven development tooling in the current project",
	Long: `dd initializes spec-driven development workflows: Spec Kit via the
specify CLI, and BMad Method via bunx or npx. Flows run independently,
so one failing does not block the other.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ddClaude && ddCodex {
			return usageError("--claude and --codex are mutually exclusive")
		}
		if !ddSpecKit && !ddBMad {
			return &core.Error{
				Message: "nothing to bootstrap",
				Code:    core.ExitGeneral,
				Suggestions: []string{
					"initialize Spec Kit: mk dd --spec-kit",
					"initialize BMad Method: mk dd --bmad-method",
				},
			}
		}
		if (ddClaude || ddCodex) && !ddSpecKit {
			return &core.Error{
				Message: "agent selection only applies to Spec Kit",
				Code:    core.ExitGeneral,
				Suggestions: []string{
					"combine it with --spec-kit: mk dd --spec-kit --codex",
				},
			}
		}

		d, err := newDeps()
		if err != nil {
			return err
		}

		agent := ""
		if ddClaude {
			agent = "claude"
		}
		if ddCodex {
			agent = "codex"
		}

		ctx := cmd.Context()
		bootstrap := core.NewDDBootstrap(d.runner, d.log, ddDryRun)
		reports := bootstrap.Run(ctx, core.DDOptions{
			SpecKit: ddSpecKit,
			BMad:    ddBMad,
			Agent:   agent,
			Force:   ddForce,
		})

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if core.AllDDFailed(reports) {
			return &core.Error{
				Message: "bootstrap failed",
				Code:    core.ExitGeneral,
				Suggestions: []string{
					"run with --verbose for command output",
				},
			}
		}
		return nil
	},
}

func init() {
	ddCmd.Flags().BoolVarP(&ddSpecKit, "spec-kit", "s", false, "Initialize Spec Kit in the current directory")
	ddCmd.Flags().BoolVarP(&ddBMad, "bmad-method", "b", false, "Install BMad Method in the current directory")
	ddCmd.Flags().BoolVarP(&ddClaude, "claude", "c", false, "Target the Claude Code agent (default)")
	ddCmd.Flags().BoolVar(&ddCodex, "codex", false, "Target the Codex agent")
	ddCmd.Flags().BoolVar(&ddForce, "force", false, "Initialize even if the directory already has Spec Kit files")
	ddCmd.Flags().BoolVar(&ddDryRun, "dry-run", false, "Run preflight checks without initializing")
	rootCmd.AddCommand(ddCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monokickstart/mk/internal/core"
)

var setupShellCmd = &cobra.Command{
	Use:   "setup-shell",
	Short: "Wire PATH and shell completion into your shell config",
	Long: `setup-shell makes the shell aware of mk and the CLIs it installs: it
puts ~/.local/bin on PATH and installs the completion script for the
detected shell. Edits are idempotent; running it twice changes nothing.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		env := core.NewShellEnv(d.platform, d.home)
		if env.ConfigFile() == "" {
			return &core.Error{
				Message: fmt.Sprintf("cannot find a config file for shell %q", d.platform.Shell),
				Code:    core.ExitGeneral,
				Suggestions: []string{
					"set the SHELL environment variable to bash, zsh, or fish",
				},
			}
		}

		added, err := env.EnsurePathEntry()
		if err != nil {
			return classifyWriteError(err)
		}
		if added {
			d.log.Info("PATH entry added", "file", env.ConfigFile())
		} else {
			d.log.Info("PATH already covers ~/.local/bin", "file", env.ConfigFile())
		}

		spec, ok := env.CompletionSpec()
		if !ok {
			d.log.Warn("no completion support for this shell", "shell", d.platform.Shell)
			return nil
		}
		if err := writeCompletionScript(d.platform.Shell, spec.Path); err != nil {
			return classifyWriteError(err)
		}
		d.log.Info("completion script installed", "path", spec.Path)

		if len(spec.RCLines) > 0 {
			if _, err := env.EnsureRCLines(spec.RCLines); err != nil {
				return classifyWriteError(err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Shell configured. Restart your shell or run: source %s\n", env.ConfigFile())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupShellCmd)
}

// writeCompletionScript generates the cobra completion file for shell at
// path, creating parent directories first.
func writeCompletionScript(shell core.Shell, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch shell {
	case core.ShellBash:
		return rootCmd.GenBashCompletionFileV2(path, true)
	case core.ShellZsh:
		return rootCmd.GenZshCompletionFile(path)
	case core.ShellFish:
		return rootCmd.GenFishCompletionFile(path, true)
	}
	return fmt.Errorf("no completion generator for shell %q", shell)
}

// classifyWriteError maps filesystem permission failures to the permission
// exit code; everything else passes through.
func classifyWriteError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return core.PermissionError(err.Error())
	}
	return err
}

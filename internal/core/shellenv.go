package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// localBinRelPath is the PATH entry mk-installed CLIs land in.
const localBinRelPath = ".local/bin"

// ShellEnv wires mk and the tools it installs into the user's shell: a PATH
// entry for ~/.local/bin and lines that load the mk completion script. All
// edits are idempotent line appends; existing rc content is never rewritten.
type ShellEnv struct {
	platform Platform
	home     string
}

// NewShellEnv returns a ShellEnv editing the rc file named by the platform.
func NewShellEnv(platform Platform, home string) *ShellEnv {
	return &ShellEnv{platform: platform, home: home}
}

// LocalBinDir returns ~/.local/bin.
func (s *ShellEnv) LocalBinDir() string {
	return filepath.Join(s.home, filepath.FromSlash(localBinRelPath))
}

// ConfigFile returns the shell rc file edits are appended to.
func (s *ShellEnv) ConfigFile() string {
	return s.platform.ShellConfigFile
}

// PathExportLine returns the line that puts ~/.local/bin on PATH, in the
// syntax of the detected shell.
func (s *ShellEnv) PathExportLine() string {
	if s.platform.Shell == ShellFish {
		return "fish_add_path --global $HOME/.local/bin"
	}
	return `export PATH="$HOME/.local/bin:$PATH"`
}

// EnsurePathEntry appends the PATH export to the shell config file. A file
// that mentions .local/bin anywhere is left alone, so a user's own PATH
// setup is never duplicated. Returns whether the file changed.
func (s *ShellEnv) EnsurePathEntry() (bool, error) {
	rc := s.ConfigFile()
	data, err := os.ReadFile(rc)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reading %s: %w", rc, err)
	}
	if strings.Contains(string(data), localBinRelPath) {
		return false, nil
	}
	return ensureLineInFile(rc, s.PathExportLine())
}

// CompletionSpec names where the completion script for the current shell
// goes and the rc lines that make the shell load it. RCLines is empty when
// the shell picks the script up from Path without any wiring.
type CompletionSpec struct {
	Path    string
	RCLines []string
}

// CompletionSpec returns the completion layout for the detected shell. The
// second return is false for shells mk cannot generate completions for.
func (s *ShellEnv) CompletionSpec() (CompletionSpec, bool) {
	switch s.platform.Shell {
	case ShellBash:
		return CompletionSpec{
			Path: filepath.Join(s.home, ".bash_completions", "mk.sh"),
			RCLines: []string{
				`[ -f "$HOME/.bash_completions/mk.sh" ] && source "$HOME/.bash_completions/mk.sh"`,
			},
		}, true
	case ShellZsh:
		return CompletionSpec{
			Path: filepath.Join(s.home, ".zsh_completions", "_mk"),
			RCLines: []string{
				`fpath=($HOME/.zsh_completions $fpath)`,
				`autoload -Uz compinit && compinit`,
			},
		}, true
	case ShellFish:
		// Fish auto-loads everything under completions/.
		return CompletionSpec{
			Path: filepath.Join(s.home, ".config", "fish", "completions", "mk.fish"),
		}, true
	}
	return CompletionSpec{}, false
}

// EnsureRCLines appends each line to the shell config file, skipping lines
// already present. Returns whether anything was added.
func (s *ShellEnv) EnsureRCLines(lines []string) (bool, error) {
	changed := false
	for _, line := range lines {
		added, err := ensureLineInFile(s.ConfigFile(), line)
		if err != nil {
			return changed, err
		}
		changed = changed || added
	}
	return changed, nil
}

// ensureLineInFile appends line to path unless some line of the file already
// equals it (ignoring surrounding whitespace). The file is created along
// with its parent directory when missing.
func ensureLineInFile(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, existing := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(existing) == line {
			return false, nil
		}
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += line + "\n"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

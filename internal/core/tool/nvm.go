package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("nvm", newNVM) }

const defaultNVMVersion = "v0.40.4"

// nvmShellConfig is appended to the user's shell config file once, so new
// shells pick up nvm without a manual export.
const nvmShellConfig = `
# NVM configuration
export NVM_DIR="$HOME/.nvm"
[ -s "$NVM_DIR/nvm.sh" ] && \. "$NVM_DIR/nvm.sh"  # This loads nvm
[ -s "$NVM_DIR/bash_completion" ] && \. "$NVM_DIR/bash_completion"  # This loads nvm bash_completion
`

// nvm installs the Node Version Manager by downloading and running the
// official install script, then wires its environment into the user's
// shell config. Presence is defined by ~/.nvm/nvm.sh, not by PATH: nvm is
// a shell function, not a binary.
type nvm struct {
	base
	version   string
	scriptURL string
}

func newNVM(deps Deps) Tool {
	version := deps.Config.Version
	if version == "" {
		version = defaultNVMVersion
	}
	return &nvm{
		base:      base{deps: deps, name: "nvm", display: "NVM"},
		version:   version,
		scriptURL: fmt.Sprintf("https://raw.githubusercontent.com/nvm-sh/nvm/%s/install.sh", version),
	}
}

func (n *nvm) scriptPath() string {
	return filepath.Join(n.deps.Home, ".nvm", "nvm.sh")
}

func (n *nvm) Verify(ctx context.Context) bool {
	nvmSh := n.scriptPath()
	if !fileExists(nvmSh) {
		return false
	}
	result, err := n.run(ctx, fmt.Sprintf("source %s && nvm --version", nvmSh), core.VersionProbeTimeout, 1)
	return err == nil && result.ExitCode == 0
}

func (n *nvm) InstalledVersion(ctx context.Context) string {
	nvmSh := n.scriptPath()
	if !fileExists(nvmSh) {
		return ""
	}
	result, err := n.run(ctx, fmt.Sprintf("source %s && nvm --version", nvmSh), core.VersionProbeTimeout, 1)
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(result.Stdout)
}

func (n *nvm) Install(ctx context.Context) core.InstallReport {
	if n.Verify(ctx) {
		return n.skipInstalled(n.InstalledVersion(ctx))
	}

	report, ok := n.runInstallScript(ctx)
	if !ok {
		return report
	}

	if err := n.writeShellConfig(); err != nil {
		return core.Failed(n.name, "failed to update the shell config file", err.Error())
	}

	if !n.Verify(ctx) {
		return n.verifyFailed("install script")
	}
	return n.installed(n.InstalledVersion(ctx))
}

func (n *nvm) Upgrade(ctx context.Context) core.InstallReport {
	if !n.Verify(ctx) {
		return n.notInstalled()
	}
	oldVersion := n.InstalledVersion(ctx)

	// The official script upgrades an existing install in place.
	report, ok := n.runInstallScript(ctx)
	if !ok {
		return report
	}

	if !n.Verify(ctx) {
		return n.verifyFailed("upgrade script")
	}
	return n.upgraded(oldVersion, n.InstalledVersion(ctx))
}

// runInstallScript downloads the pinned install script and runs it. The
// second return is false when the returned report is a failure.
func (n *nvm) runInstallScript(ctx context.Context) (core.InstallReport, bool) {
	script, err := tempScript("nvm-install-*.sh")
	if err != nil {
		return core.Failed(n.name, "failed to create a temp file for the install script", err.Error()), false
	}
	defer os.Remove(script)

	if !n.deps.Fetcher.Fetch(ctx, n.scriptURL, script) {
		return core.Failed(n.name, "failed to download the NVM install script",
			"could not download the install script from GitHub"), false
	}

	result, err := n.run(ctx, "bash "+script, 600*time.Second, 1)
	if err != nil {
		return core.Failed(n.name, "NVM install script failed", err.Error()), false
	}
	if result.ExitCode != 0 {
		return n.installFailed("NVM install script failed", result), false
	}
	return core.InstallReport{}, true
}

// writeShellConfig appends the nvm environment block to the shell config
// file unless one is already there.
func (n *nvm) writeShellConfig() error {
	path := n.deps.Platform.ShellConfigFile
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	content := string(existing)
	if strings.Contains(content, "NVM_DIR") && strings.Contains(content, "nvm.sh") {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	block := nvmShellConfig
	if content != "" && !strings.HasSuffix(content, "\n") {
		block = "\n" + block
	}
	_, err = f.WriteString(block)
	return err
}

package tool

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("node", newNode) }

// node installs Node.js through nvm and pins the installed version as the
// default alias. Without nvm on disk it fails fast instead of guessing at
// another install method.
type node struct {
	base
	version string
}

func newNode(deps Deps) Tool {
	// "lts" and "latest" are the config-facing names for nvm's lts/* and
	// node aliases; anything else is passed through as a literal version.
	version := deps.Config.Version
	switch version {
	case "", "lts":
		version = "lts/*"
	case "latest":
		version = "node"
	}
	return &node{
		base:    base{deps: deps, name: "node", display: "Node.js"},
		version: version,
	}
}

func (n *node) nvmScript() string {
	return filepath.Join(n.deps.Home, ".nvm", "nvm.sh")
}

func (n *node) nvmInstalled(ctx context.Context) bool {
	nvmSh := n.nvmScript()
	if !fileExists(nvmSh) {
		return false
	}
	result, err := n.run(ctx, fmt.Sprintf("source %s && nvm --version", nvmSh), core.VersionProbeTimeout, 1)
	return err == nil && result.ExitCode == 0
}

func (n *node) Verify(ctx context.Context) bool {
	nvmSh := n.nvmScript()
	if !fileExists(nvmSh) {
		return false
	}
	result, err := n.run(ctx, fmt.Sprintf("source %s && node --version", nvmSh), core.VersionProbeTimeout, 1)
	return err == nil && result.ExitCode == 0
}

func (n *node) InstalledVersion(ctx context.Context) string {
	nvmSh := n.nvmScript()
	if !fileExists(nvmSh) {
		return ""
	}
	result, err := n.run(ctx, fmt.Sprintf("source %s && node --version", nvmSh), core.VersionProbeTimeout, 1)
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	return core.VersionFromOutput(result.Stdout)
}

func (n *node) Install(ctx context.Context) core.InstallReport {
	if !n.nvmInstalled(ctx) {
		return n.missingDependency("nvm", "install")
	}
	if n.Verify(ctx) {
		return n.skipInstalled(n.InstalledVersion(ctx))
	}

	if report, ok := n.installViaNVM(ctx); !ok {
		return report
	}
	if report, ok := n.setDefault(ctx); !ok {
		return report
	}
	if !n.Verify(ctx) {
		return n.verifyFailed("install")
	}
	return n.installed(n.InstalledVersion(ctx))
}

func (n *node) Upgrade(ctx context.Context) core.InstallReport {
	if !n.nvmInstalled(ctx) {
		return n.missingDependency("nvm", "upgrade")
	}
	if !n.Verify(ctx) {
		return n.notInstalled()
	}
	oldVersion := n.InstalledVersion(ctx)

	// nvm install fetches the newest build matching the version spec, so
	// the install path doubles as the upgrade path.
	if report, ok := n.installViaNVM(ctx); !ok {
		return report
	}
	if report, ok := n.setDefault(ctx); !ok {
		return report
	}
	if !n.Verify(ctx) {
		return n.verifyFailed("upgrade")
	}
	return n.upgraded(oldVersion, n.InstalledVersion(ctx))
}

func (n *node) installViaNVM(ctx context.Context) (core.InstallReport, bool) {
	cmd := fmt.Sprintf("source %s && nvm install %s", n.nvmScript(), n.version)
	result, err := n.run(ctx, cmd, 600*time.Second, 2)
	if err != nil {
		return core.Failed(n.name, "installing Node.js via nvm failed", err.Error()), false
	}
	if result.ExitCode != 0 {
		return n.installFailed("installing Node.js via nvm failed", result), false
	}
	return core.InstallReport{}, true
}

func (n *node) setDefault(ctx context.Context) (core.InstallReport, bool) {
	cmd := fmt.Sprintf("source %s && nvm alias default %s", n.nvmScript(), n.version)
	result, err := n.run(ctx, cmd, 30*time.Second, 1)
	if err != nil {
		return core.Failed(n.name, "setting the default Node.js version failed", err.Error()), false
	}
	if result.ExitCode != 0 {
		return n.installFailed("setting the default Node.js version failed", result), false
	}
	return core.InstallReport{}, true
}

// SetDefaultNodeVersion points the nvm default alias at version. Used by
// `mk set-default node` outside the install flow.
func SetDefaultNodeVersion(ctx context.Context, runner core.Runner, home, version string) error {
	nvmSh := filepath.Join(home, ".nvm", "nvm.sh")
	if !fileExists(nvmSh) {
		return core.DependencyError("nvm", "set-default node")
	}
	cmd := fmt.Sprintf("source %s && nvm alias default %s", nvmSh, version)
	result, err := runner.Run(ctx, cmd, core.RunOptions{Timeout: 30 * time.Second, Retries: 1})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("nvm alias exited with code %d", result.ExitCode)
		}
		return fmt.Errorf("setting default Node.js version: %s", detail)
	}
	return nil
}

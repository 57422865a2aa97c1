package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("copilot-cli", newCopilot) }

// minCopilotNode is the lowest Node.js major version the Copilot CLI runs on.
const minCopilotNode = 22

// copilot installs the GitHub Copilot CLI through npm. The npm package
// refuses to run on Node.js below v22, so the version gate runs before the
// install rather than letting npm fail halfway through.
type copilot struct {
	base
}

func newCopilot(deps Deps) Tool {
	return &copilot{base{
		deps:       deps,
		name:       "copilot-cli",
		display:    "GitHub Copilot CLI",
		command:    "copilot",
		versionArg: "--version",
	}}
}

// checkNode verifies that Node.js is present and recent enough. The
// returned string is the failure reason, "" on success.
func (c *copilot) checkNode(ctx context.Context) string {
	if _, ok := c.lookPath("node"); !ok {
		return "Node.js is not installed, install it first"
	}
	result, err := c.run(ctx, "node --version", core.VersionProbeTimeout, 1)
	if err != nil || result.ExitCode != 0 {
		return "could not determine the Node.js version"
	}
	raw := strings.TrimSpace(result.Stdout)
	v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return fmt.Sprintf("could not parse Node.js version %q", raw)
	}
	if v.Major() < minCopilotNode {
		return fmt.Sprintf("Node.js %s is too old, need >= v%d.0.0", raw, minCopilotNode)
	}
	return ""
}

func (c *copilot) supportedOS() bool {
	return c.deps.Platform.OS == core.OSMacOS || c.deps.Platform.OS == core.OSLinux
}

func (c *copilot) Install(ctx context.Context) core.InstallReport {
	if !c.supportedOS() {
		return core.Failed(c.name, "unsupported operating system",
			"the GitHub Copilot CLI installer supports macOS and Linux only")
	}
	if c.Verify(ctx) {
		return c.skipInstalled(c.InstalledVersion(ctx))
	}
	if reason := c.checkNode(ctx); reason != "" {
		return core.Failed(c.name, "Node.js version requirement not met", reason)
	}

	result, err := c.run(ctx, "npm install -g @github/copilot", 300*time.Second, 3)
	if err != nil {
		return core.Failed(c.name, "installing the GitHub Copilot CLI via npm failed", err.Error())
	}
	if result.ExitCode != 0 {
		return c.installFailed("installing the GitHub Copilot CLI via npm failed", result)
	}

	if !c.Verify(ctx) {
		return c.verifyFailed("install")
	}
	return c.installed(c.InstalledVersion(ctx))
}

func (c *copilot) Upgrade(ctx context.Context) core.InstallReport {
	if !c.supportedOS() {
		return core.Failed(c.name, "unsupported operating system",
			"the GitHub Copilot CLI installer supports macOS and Linux only")
	}
	if !c.Verify(ctx) {
		return c.notInstalled()
	}
	if reason := c.checkNode(ctx); reason != "" {
		return core.Failed(c.name, "Node.js version requirement not met", reason)
	}
	oldVersion := c.InstalledVersion(ctx)

	result, err := c.run(ctx, "npm update -g @github/copilot", 300*time.Second, 3)
	if err != nil {
		return core.Failed(c.name, "upgrading the GitHub Copilot CLI via npm failed", err.Error())
	}
	if result.ExitCode != 0 {
		return c.installFailed("upgrading the GitHub Copilot CLI via npm failed", result)
	}

	if !c.Verify(ctx) {
		return c.verifyFailed("upgrade")
	}
	return c.upgraded(oldVersion, c.InstalledVersion(ctx))
}

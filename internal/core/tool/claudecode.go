package tool

import (
	"context"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("claude-code", newClaudeCode) }

const claudeInstallScriptURL = "https://claude.ai/download/cli/install.sh"

// claudeCode installs the Claude Code CLI with the official install script.
// Verification is stricter than a version probe: `claude doctor` has to
// pass, since a broken install can still print a version.
type claudeCode struct {
	base
}

func newClaudeCode(deps Deps) Tool {
	return &claudeCode{base{
		deps:       deps,
		name:       "claude-code",
		display:    "Claude Code",
		command:    "claude",
		versionArg: "--version",
	}}
}

func (c *claudeCode) Verify(ctx context.Context) bool {
	if _, ok := c.lookPath("claude"); !ok {
		return false
	}
	result, err := c.run(ctx, "claude doctor", 30*time.Second, 1)
	return err == nil && result.ExitCode == 0
}

func (c *claudeCode) Install(ctx context.Context) core.InstallReport {
	if c.Verify(ctx) {
		return c.skipInstalled(c.InstalledVersion(ctx))
	}

	result, err := c.run(ctx, "curl -fsSL "+claudeInstallScriptURL+" | bash", 300*time.Second, 2)
	if err != nil {
		return core.Failed(c.name, "Claude Code install script failed", err.Error())
	}
	if result.ExitCode != 0 {
		return c.installFailed("Claude Code install script failed", result)
	}

	if !c.Verify(ctx) {
		return core.Failed(c.name, "Claude Code verification failed",
			"the install script succeeded but 'claude doctor' did not pass")
	}
	return c.installed(c.InstalledVersion(ctx))
}

func (c *claudeCode) Upgrade(ctx context.Context) core.InstallReport {
	if !c.Verify(ctx) {
		return c.notInstalled()
	}
	oldVersion := c.InstalledVersion(ctx)

	// The install script detects an existing install and updates it.
	result, err := c.run(ctx, "curl -fsSL "+claudeInstallScriptURL+" | bash", 300*time.Second, 2)
	if err != nil {
		return core.Failed(c.name, "Claude Code upgrade failed", err.Error())
	}
	if result.ExitCode != 0 {
		return c.installFailed("Claude Code upgrade failed", result)
	}

	if !c.Verify(ctx) {
		return core.Failed(c.name, "Claude Code verification failed",
			"the upgrade succeeded but 'claude doctor' did not pass")
	}
	return c.upgraded(oldVersion, c.InstalledVersion(ctx))
}

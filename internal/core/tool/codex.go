package tool

import (
	"context"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("codex", newCodex) }

// codex installs the OpenAI Codex CLI globally, preferring bun over npm
// when neither is forced through install_via.
type codex struct {
	base
}

func newCodex(deps Deps) Tool {
	return &codex{base{
		deps:       deps,
		name:       "codex",
		display:    "Codex CLI",
		command:    "codex",
		versionArg: "--version",
	}}
}

func (c *codex) Install(ctx context.Context) core.InstallReport {
	if c.Verify(ctx) {
		return c.skipInstalled(c.InstalledVersion(ctx))
	}

	var cmd string
	switch mgr := c.packageManager(); mgr {
	case "bun":
		if report, ok := c.requireManager("bun", "npm"); !ok {
			return report
		}
		cmd = "bun install -g @openai/codex"
	default:
		if report, ok := c.requireManager("npm", "bun"); !ok {
			return report
		}
		cmd = "npm i -g @openai/codex"
	}

	result, err := c.run(ctx, cmd, 300*time.Second, 2)
	if err != nil {
		return core.Failed(c.name, "installing the Codex CLI failed", err.Error())
	}
	if result.ExitCode != 0 {
		return c.installFailed("installing the Codex CLI failed", result)
	}

	if !c.Verify(ctx) {
		return c.verifyFailed("install")
	}
	return c.installed(c.InstalledVersion(ctx))
}

func (c *codex) Upgrade(ctx context.Context) core.InstallReport {
	if !c.Verify(ctx) {
		return c.notInstalled()
	}
	oldVersion := c.InstalledVersion(ctx)

	var cmd string
	switch mgr := c.packageManager(); mgr {
	case "bun":
		if report, ok := c.requireManager("bun", "npm"); !ok {
			return report
		}
		cmd = "bun update -g @openai/codex"
	default:
		if report, ok := c.requireManager("npm", "bun"); !ok {
			return report
		}
		cmd = "npm update -g @openai/codex"
	}

	result, err := c.run(ctx, cmd, 300*time.Second, 2)
	if err != nil {
		return core.Failed(c.name, "upgrading the Codex CLI failed", err.Error())
	}
	if result.ExitCode != 0 {
		return c.installFailed("upgrading the Codex CLI failed", result)
	}

	if !c.Verify(ctx) {
		return c.verifyFailed("upgrade")
	}
	return c.upgraded(oldVersion, c.InstalledVersion(ctx))
}

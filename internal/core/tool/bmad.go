package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("bmad-method", newBMad) }

// bmad installs the BMad Method scaffolding through a one-shot bunx or npx
// run rather than a global package. The init command is interactive, so it
// runs with a single attempt and no retry.
type bmad struct {
	base
}

func newBMad(deps Deps) Tool {
	return &bmad{base{
		deps:       deps,
		name:       "bmad-method",
		display:    "BMad Method",
		command:    "bmad",
		versionArg: "--version",
	}}
}

// runnerCommand picks bunx or npx, honoring install_via the same way the
// bun/npm installers do.
func (b *bmad) runnerCommand() string {
	switch strings.ToLower(strings.TrimSpace(b.deps.Config.InstallVia)) {
	case "bun":
		return "bunx"
	case "npm":
		return "npx"
	}
	if _, ok := b.lookPath("bun"); ok {
		return "bunx"
	}
	return "npx"
}

func (b *bmad) Install(ctx context.Context) core.InstallReport {
	if b.Verify(ctx) {
		return b.skipInstalled(b.InstalledVersion(ctx))
	}

	var cmd string
	method := b.runnerCommand()
	switch method {
	case "bunx":
		if _, ok := b.lookPath("bun"); !ok {
			return core.Failed(b.name, "Bun is not installed, cannot install BMad Method via bunx",
				"install Bun first or set install_via: npm")
		}
		cmd = "bunx bmad-method init"
	default:
		if _, ok := b.lookPath("npx"); !ok {
			return core.Failed(b.name, "npx is not installed, cannot install BMad Method",
				"install Node.js first")
		}
		cmd = "npx bmad-method init"
	}

	result, err := b.run(ctx, cmd, 300*time.Second, 1)
	if err != nil {
		return core.Failed(b.name, "installing BMad Method failed", err.Error())
	}
	if result.ExitCode != 0 {
		return b.installFailed("installing BMad Method failed", result)
	}

	if !b.Verify(ctx) {
		return b.verifyFailed("install")
	}
	return core.Succeeded(b.name, b.InstalledVersion(ctx),
		fmt.Sprintf("BMad Method installed successfully (via %s)", method))
}

func (b *bmad) Upgrade(ctx context.Context) core.InstallReport {
	if !b.Verify(ctx) {
		return b.notInstalled()
	}
	oldVersion := b.InstalledVersion(ctx)

	var cmd string
	switch b.runnerCommand() {
	case "bunx":
		if _, ok := b.lookPath("bun"); !ok {
			return core.Failed(b.name, "Bun is not installed, cannot upgrade BMad Method via bunx",
				"install Bun first or set install_via: npm")
		}
		cmd = "bunx bmad-method@latest init"
	default:
		if _, ok := b.lookPath("npx"); !ok {
			return core.Failed(b.name, "npx is not installed, cannot upgrade BMad Method",
				"install Node.js first")
		}
		cmd = "npx bmad-method@latest init"
	}

	result, err := b.run(ctx, cmd, 300*time.Second, 1)
	if err != nil {
		return core.Failed(b.name, "upgrading BMad Method failed", err.Error())
	}
	if result.ExitCode != 0 {
		return b.installFailed("upgrading BMad Method failed", result)
	}

	if !b.Verify(ctx) {
		return b.verifyFailed("upgrade")
	}
	return b.upgraded(oldVersion, b.InstalledVersion(ctx))
}

package tool

import (
	"context"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("opencode", newOpenCode) }

// openCode installs the OpenCode agent globally via bun or npm. Note the
// asymmetric upgrade commands: bun has no `update -g`, so the upgrade
// re-adds the package pinned to latest.
type openCode struct {
	base
}

func newOpenCode(deps Deps) Tool {
	return &openCode{base{
		deps:       deps,
		name:       "opencode",
		display:    "OpenCode",
		command:    "opencode",
		versionArg: "--version",
	}}
}

func (o *openCode) Install(ctx context.Context) core.InstallReport {
	if o.Verify(ctx) {
		return o.skipInstalled(o.InstalledVersion(ctx))
	}

	var cmd string
	switch o.packageManager() {
	case "bun":
		if report, ok := o.requireManager("bun", "npm"); !ok {
			return report
		}
		cmd = "bun add -g opencode-ai"
	default:
		if report, ok := o.requireManager("npm", "bun"); !ok {
			return report
		}
		cmd = "npm i -g opencode-ai"
	}

	result, err := o.run(ctx, cmd, 300*time.Second, 2)
	if err != nil {
		return core.Failed(o.name, "installing OpenCode failed", err.Error())
	}
	if result.ExitCode != 0 {
		return o.installFailed("installing OpenCode failed", result)
	}

	if !o.Verify(ctx) {
		return o.verifyFailed("install")
	}
	return o.installed(o.InstalledVersion(ctx))
}

func (o *openCode) Upgrade(ctx context.Context) core.InstallReport {
	if !o.Verify(ctx) {
		return o.notInstalled()
	}
	oldVersion := o.InstalledVersion(ctx)

	var cmd string
	switch o.packageManager() {
	case "bun":
		if report, ok := o.requireManager("bun", "npm"); !ok {
			return report
		}
		cmd = "bun add -g opencode-ai@latest"
	default:
		if report, ok := o.requireManager("npm", "bun"); !ok {
			return report
		}
		cmd = "npm update -g opencode-ai"
	}

	result, err := o.run(ctx, cmd, 300*time.Second, 2)
	if err != nil {
		return core.Failed(o.name, "upgrading OpenCode failed", err.Error())
	}
	if result.ExitCode != 0 {
		return o.installFailed("upgrading OpenCode failed", result)
	}

	if !o.Verify(ctx) {
		return o.verifyFailed("upgrade")
	}
	return o.upgraded(oldVersion, o.InstalledVersion(ctx))
}

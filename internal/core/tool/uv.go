package tool

import (
	"context"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("uv", newUV) }

// uv installs Astral's uv with the official install script and upgrades
// through `uv self update`.
type uv struct {
	base
}

func newUV(deps Deps) Tool {
	return &uv{base{
		deps:       deps,
		name:       "uv",
		display:    "uv",
		command:    "uv",
		versionArg: "--version",
	}}
}

func (u *uv) Install(ctx context.Context) core.InstallReport {
	if u.Verify(ctx) {
		return u.skipInstalled(u.InstalledVersion(ctx))
	}

	result, err := u.run(ctx, "curl -LsSf https://astral.sh/uv/install.sh | sh", 300*time.Second, 2)
	if err != nil {
		return core.Failed(u.name, "uv install script failed", err.Error())
	}
	if result.ExitCode != 0 {
		return u.installFailed("uv install script failed", result)
	}

	if !u.Verify(ctx) {
		return u.verifyFailed("install script")
	}
	return u.installed(u.InstalledVersion(ctx))
}

func (u *uv) Upgrade(ctx context.Context) core.InstallReport {
	if !u.Verify(ctx) {
		return u.notInstalled()
	}
	oldVersion := u.InstalledVersion(ctx)

	result, err := u.run(ctx, "uv self update", 300*time.Second, 2)
	if err != nil {
		return core.Failed(u.name, "uv self update failed", err.Error())
	}
	if result.ExitCode != 0 {
		return u.installFailed("uv self update failed", result)
	}

	if !u.Verify(ctx) {
		return u.verifyFailed("upgrade")
	}
	return u.upgraded(oldVersion, u.InstalledVersion(ctx))
}

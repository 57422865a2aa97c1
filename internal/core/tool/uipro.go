package tool

import (
	"context"
	"strings"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("uipro", newUIPro) }

// uiPro installs the UIPro CLI globally via bun or npm. The CLI has no
// --version flag; `uipro versions` prints the current version on its first
// line, so both Verify and InstalledVersion go through it.
type uiPro struct {
	base
}

func newUIPro(deps Deps) Tool {
	return &uiPro{base{
		deps:       deps,
		name:       "uipro",
		display:    "UIPro CLI",
		command:    "uipro",
		versionArg: "versions",
	}}
}

func (u *uiPro) InstalledVersion(ctx context.Context) string {
	if _, ok := u.lookPath("uipro"); !ok {
		return ""
	}
	result, err := u.run(ctx, "uipro versions", core.VersionProbeTimeout, 1)
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	lines := strings.SplitN(strings.TrimSpace(result.Stdout), "\n", 2)
	return strings.TrimSpace(lines[0])
}

func (u *uiPro) Install(ctx context.Context) core.InstallReport {
	if u.Verify(ctx) {
		return u.skipInstalled(u.InstalledVersion(ctx))
	}

	var cmd string
	switch u.packageManager() {
	case "bun":
		if report, ok := u.requireManager("bun", "npm"); !ok {
			return report
		}
		cmd = "bun install -g uipro-cli"
	default:
		if report, ok := u.requireManager("npm", "bun"); !ok {
			return report
		}
		cmd = "npm install -g uipro-cli"
	}

	result, err := u.run(ctx, cmd, 300*time.Second, 2)
	if err != nil {
		return core.Failed(u.name, "installing the UIPro CLI failed", err.Error())
	}
	if result.ExitCode != 0 {
		return u.installFailed("installing the UIPro CLI failed", result)
	}

	if !u.Verify(ctx) {
		return u.verifyFailed("install")
	}
	return u.installed(u.InstalledVersion(ctx))
}

func (u *uiPro) Upgrade(ctx context.Context) core.InstallReport {
	if !u.Verify(ctx) {
		return u.notInstalled()
	}
	oldVersion := u.InstalledVersion(ctx)

	result, err := u.run(ctx, "uipro update", 300*time.Second, 2)
	if err != nil {
		return core.Failed(u.name, "uipro update failed", err.Error())
	}
	if result.ExitCode != 0 {
		return u.installFailed("uipro update failed", result)
	}

	if !u.Verify(ctx) {
		return u.verifyFailed("upgrade")
	}
	return u.upgraded(oldVersion, u.InstalledVersion(ctx))
}

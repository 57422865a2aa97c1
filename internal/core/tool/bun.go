package tool

import (
	"context"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("bun", newBun) }

// bun installs the Bun runtime with the official install script and
// upgrades through bun's own self-updater.
type bun struct {
	base
}

func newBun(deps Deps) Tool {
	return &bun{base{
		deps:       deps,
		name:       "bun",
		display:    "Bun",
		command:    "bun",
		versionArg: "--version",
	}}
}

func (b *bun) Install(ctx context.Context) core.InstallReport {
	if b.Verify(ctx) {
		return b.skipInstalled(b.InstalledVersion(ctx))
	}

	result, err := b.run(ctx, "curl -fsSL https://bun.sh/install | bash", 300*time.Second, 2)
	if err != nil {
		return core.Failed(b.name, "Bun install script failed", err.Error())
	}
	if result.ExitCode != 0 {
		return b.installFailed("Bun install script failed", result)
	}

	if !b.Verify(ctx) {
		return b.verifyFailed("install script")
	}
	return b.installed(b.InstalledVersion(ctx))
}

func (b *bun) Upgrade(ctx context.Context) core.InstallReport {
	if !b.Verify(ctx) {
		return b.notInstalled()
	}
	oldVersion := b.InstalledVersion(ctx)

	result, err := b.run(ctx, "bun upgrade", 300*time.Second, 2)
	if err != nil {
		return core.Failed(b.name, "bun upgrade failed", err.Error())
	}
	if result.ExitCode != 0 {
		return b.installFailed("bun upgrade failed", result)
	}

	if !b.Verify(ctx) {
		return b.verifyFailed("upgrade")
	}
	return b.upgraded(oldVersion, b.InstalledVersion(ctx))
}

package tool

import (
	"context"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("gh", newGH) }

// ghAptSetup registers the official GitHub CLI apt repository before
// installing, following the gh documentation verbatim.
const ghAptSetup = `(type -p wget >/dev/null || (sudo apt update && sudo apt install wget -y)) ` +
	`&& sudo mkdir -p -m 755 /etc/apt/keyrings ` +
	`&& out=$(mktemp) ` +
	`&& wget -nv -O$out https://cli.github.com/packages/githubcli-archive-keyring.gpg ` +
	`&& cat $out | sudo tee /etc/apt/keyrings/githubcli-archive-keyring.gpg > /dev/null ` +
	`&& sudo chmod go+r /etc/apt/keyrings/githubcli-archive-keyring.gpg ` +
	`&& echo "deb [arch=$(dpkg --print-architecture) signed-by=/etc/apt/keyrings/githubcli-archive-keyring.gpg] https://cli.github.com/packages stable main" ` +
	`| sudo tee /etc/apt/sources.list.d/github-cli.list > /dev/null ` +
	`&& sudo apt update ` +
	`&& sudo apt install gh -y`

const ghDnfSetup = `sudo dnf install 'dnf-command(config-manager)' -y ` +
	`&& sudo dnf config-manager --add-repo https://cli.github.com/packages/rpm/gh-cli.repo ` +
	`&& sudo dnf install gh --repo gh-cli -y`

// gh installs the GitHub CLI through the platform package manager:
// Homebrew on macOS (required), Homebrew then apt-get then dnf on Linux.
type gh struct {
	base
}

func newGH(deps Deps) Tool {
	return &gh{base{
		deps:       deps,
		name:       "gh",
		display:    "GitHub CLI",
		command:    "gh",
		versionArg: "--version",
	}}
}

func (g *gh) supportedOS() bool {
	return g.deps.Platform.OS == core.OSMacOS || g.deps.Platform.OS == core.OSLinux
}

func (g *gh) brewAvailable() bool {
	_, ok := g.lookPath("brew")
	return ok
}

// linuxPackageManager returns apt-get or dnf, or "" when neither exists.
func (g *gh) linuxPackageManager() string {
	if _, ok := g.lookPath("apt-get"); ok {
		return "apt-get"
	}
	if _, ok := g.lookPath("dnf"); ok {
		return "dnf"
	}
	return ""
}

func (g *gh) Install(ctx context.Context) core.InstallReport {
	if !g.supportedOS() {
		return core.Failed(g.name, "unsupported operating system",
			"the GitHub CLI installer supports macOS and Linux only")
	}
	if g.Verify(ctx) {
		return g.skipInstalled(g.InstalledVersion(ctx))
	}

	var cmd string
	switch {
	case g.deps.Platform.OS == core.OSMacOS:
		if !g.brewAvailable() {
			return core.Failed(g.name, "Homebrew is not installed",
				"installing the GitHub CLI on macOS requires Homebrew, install it first")
		}
		cmd = "brew install gh"
	case g.brewAvailable():
		cmd = "brew install gh"
	default:
		switch g.linuxPackageManager() {
		case "apt-get":
			cmd = ghAptSetup
		case "dnf":
			cmd = ghDnfSetup
		default:
			return core.Failed(g.name, "no supported package manager found",
				"installing the GitHub CLI needs Homebrew, apt-get, or dnf")
		}
	}

	result, err := g.run(ctx, cmd, 600*time.Second, 2)
	if err != nil {
		return core.Failed(g.name, "installing the GitHub CLI failed", err.Error())
	}
	if result.ExitCode != 0 {
		return g.installFailed("installing the GitHub CLI failed", result)
	}

	if !g.Verify(ctx) {
		return g.verifyFailed("install")
	}
	return g.installed(g.InstalledVersion(ctx))
}

func (g *gh) Upgrade(ctx context.Context) core.InstallReport {
	if !g.supportedOS() {
		return core.Failed(g.name, "unsupported operating system",
			"the GitHub CLI installer supports macOS and Linux only")
	}
	if !g.Verify(ctx) {
		return g.notInstalled()
	}
	oldVersion := g.InstalledVersion(ctx)

	var cmd string
	switch {
	case g.brewAvailable():
		cmd = "brew upgrade gh"
	default:
		switch g.linuxPackageManager() {
		case "apt-get":
			cmd = "sudo apt update && sudo apt install --only-upgrade gh -y"
		case "dnf":
			cmd = "sudo dnf upgrade gh -y"
		default:
			return core.Failed(g.name, "no supported package manager found",
				"upgrading the GitHub CLI needs Homebrew, apt-get, or dnf")
		}
	}

	result, err := g.run(ctx, cmd, 600*time.Second, 2)
	if err != nil {
		return core.Failed(g.name, "upgrading the GitHub CLI failed", err.Error())
	}
	if result.ExitCode != 0 {
		return g.installFailed("upgrading the GitHub CLI failed", result)
	}

	if !g.Verify(ctx) {
		return g.verifyFailed("upgrade")
	}
	return g.upgraded(oldVersion, g.InstalledVersion(ctx))
}

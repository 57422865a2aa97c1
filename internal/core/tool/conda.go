package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/monokickstart/mk/internal/core"
)

func init() { Register("conda", newConda) }

// conda installs Miniconda into ~/miniconda3 from the configured Anaconda
// mirror. The installer script is platform specific, so unsupported
// platforms fail before any download happens.
type conda struct {
	base
	installDir string
}

func newConda(deps Deps) Tool {
	return &conda{
		base:       base{deps: deps, name: "conda", display: "Conda"},
		installDir: filepath.Join(deps.Home, "miniconda3"),
	}
}

func (c *conda) binPath() string {
	return filepath.Join(c.installDir, "bin", "conda")
}

// installURL builds the Miniconda download URL for the current platform,
// or "" when the platform has no installer.
func (c *conda) installURL() string {
	script := c.deps.Platform.MinicondaScript()
	if script == "" {
		return ""
	}
	base := strings.TrimSuffix(c.deps.Registry.Conda, "/")
	return base + "/miniconda/" + script
}

func (c *conda) Verify(ctx context.Context) bool {
	bin := c.binPath()
	if !fileExists(bin) {
		return false
	}
	result, err := c.run(ctx, bin+" --version", core.VersionProbeTimeout, 1)
	return err == nil && result.ExitCode == 0
}

func (c *conda) InstalledVersion(ctx context.Context) string {
	bin := c.binPath()
	if !fileExists(bin) {
		return ""
	}
	result, err := c.run(ctx, bin+" --version", core.VersionProbeTimeout, 1)
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	// Output looks like "conda 23.1.0".
	return core.VersionFromOutput(result.Stdout + result.Stderr)
}

func (c *conda) Install(ctx context.Context) core.InstallReport {
	if c.Verify(ctx) {
		return c.skipInstalled(c.InstalledVersion(ctx))
	}
	if report, ok := c.runInstaller(ctx); !ok {
		return report
	}
	if !c.Verify(ctx) {
		return c.verifyFailed("install script")
	}
	return c.installed(c.InstalledVersion(ctx))
}

func (c *conda) Upgrade(ctx context.Context) core.InstallReport {
	if !c.Verify(ctx) {
		return c.notInstalled()
	}
	oldVersion := c.InstalledVersion(ctx)

	// Re-running the latest installer with -b -f updates in place.
	if report, ok := c.runInstaller(ctx); !ok {
		return report
	}
	if !c.Verify(ctx) {
		return c.verifyFailed("upgrade script")
	}
	return c.upgraded(oldVersion, c.InstalledVersion(ctx))
}

func (c *conda) runInstaller(ctx context.Context) (core.InstallReport, bool) {
	url := c.installURL()
	if url == "" {
		return core.Failed(c.name, "unsupported platform",
			fmt.Sprintf("no Miniconda installer for %s", c.deps.Platform)), false
	}

	script, err := tempScript("miniconda-*.sh")
	if err != nil {
		return core.Failed(c.name, "failed to create a temp file for the install script", err.Error()), false
	}
	defer os.Remove(script)

	if !c.deps.Fetcher.Fetch(ctx, url, script) {
		return core.Failed(c.name, "failed to download the Miniconda installer",
			"could not download the installer from the Anaconda mirror"), false
	}

	// -b batch mode, -f keep going when the install dir already exists.
	result, err := c.run(ctx, fmt.Sprintf("bash %s -b -f", script), 600*time.Second, 1)
	if err != nil {
		return core.Failed(c.name, "Miniconda install script failed", err.Error()), false
	}
	if result.ExitCode != 0 {
		return c.installFailed("Miniconda install script failed", result), false
	}
	return core.InstallReport{}, true
}

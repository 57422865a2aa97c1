package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// mirrorCmdTimeout bounds the npm config commands. They only touch the
// local npmrc, so ten seconds is generous.
const mirrorCmdTimeout = 10 * time.Second

// Upstream endpoints, used by the "default" preset and as the baseline in
// mirror status output.
const (
	upstreamNPMRegistry   = "https://registry.npmjs.org/"
	upstreamPyPI          = "https://pypi.org/simple"
	upstreamPythonInstall = "https://github.com/astral-sh/python-build-standalone/releases/download"
	upstreamConda         = "https://repo.anaconda.com"
)

// UpstreamRegistry returns the vendors' own endpoints, used when mirrors
// are not wanted.
func UpstreamRegistry() RegistryConfig {
	return RegistryConfig{
		NPM:           upstreamNPMRegistry,
		Bun:           upstreamNPMRegistry,
		PyPI:          upstreamPyPI,
		PythonInstall: upstreamPythonInstall,
		Conda:         upstreamConda,
	}
}

// RegistryPreset resolves a preset name for `mk config mirror set`. The
// second return is false for unknown presets.
func RegistryPreset(name string) (RegistryConfig, bool) {
	switch name {
	case "china":
		return DefaultRegistry(), true
	case "default":
		return UpstreamRegistry(), true
	}
	return RegistryConfig{}, false
}

// MirrorTargets lists the tools whose registries mk can point at a mirror,
// in display order.
var MirrorTargets = []string{"npm", "bun", "pip", "uv", "conda"}

// MirrorConfigurator writes registry mirrors into each tool's own config
// surface: npm through its CLI, Bun and uv and pip and conda through their
// dotfiles. All operations report success as a plain boolean; a missing
// tool or unwritable file is an expected condition, not a program error.
type MirrorConfigurator struct {
	registry RegistryConfig
	runner   Runner
	home     string
}

// NewMirrorConfigurator creates a configurator for the given endpoints.
func NewMirrorConfigurator(registry RegistryConfig, runner Runner, home string) *MirrorConfigurator {
	return &MirrorConfigurator{registry: registry, runner: runner, home: home}
}

func (m *MirrorConfigurator) bunfigPath() string { return filepath.Join(m.home, ".bunfig.toml") }
func (m *MirrorConfigurator) uvConfigPath() string {
	return filepath.Join(m.home, ".config", "uv", "uv.toml")
}
func (m *MirrorConfigurator) pipConfigPath() string {
	return filepath.Join(m.home, ".pip", "pip.conf")
}
func (m *MirrorConfigurator) condarcPath() string { return filepath.Join(m.home, ".condarc") }

// npm

// ConfigureNPM sets the npm registry through npm's own config store.
func (m *MirrorConfigurator) ConfigureNPM(ctx context.Context) bool {
	result, err := m.runner.Run(ctx, "npm config set registry "+m.registry.NPM,
		RunOptions{Timeout: mirrorCmdTimeout, Retries: 1})
	return err == nil && result.ExitCode == 0
}

// VerifyNPM checks that npm reports the configured registry. Trailing
// slashes are ignored: npm normalizes them inconsistently across versions.
func (m *MirrorConfigurator) VerifyNPM(ctx context.Context) bool {
	result, err := m.runner.Run(ctx, "npm get registry",
		RunOptions{Timeout: mirrorCmdTimeout, Retries: 1})
	if err != nil || result.ExitCode != 0 {
		return false
	}
	actual := strings.TrimRight(strings.TrimSpace(result.Stdout), "/")
	want := strings.TrimRight(m.registry.NPM, "/")
	return actual == want
}

// ResetNPM removes the registry override so npm falls back to its default.
func (m *MirrorConfigurator) ResetNPM(ctx context.Context) bool {
	result, err := m.runner.Run(ctx, "npm config delete registry",
		RunOptions{Timeout: mirrorCmdTimeout, Retries: 1})
	return err == nil && result.ExitCode == 0
}

// currentNPM returns the registry npm currently reports, "" when unknown.
func (m *MirrorConfigurator) currentNPM(ctx context.Context) string {
	result, err := m.runner.Run(ctx, "npm get registry",
		RunOptions{Timeout: mirrorCmdTimeout, Retries: 1})
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(result.Stdout)
}

// Bun

// ConfigureBun points install.registry at the mirror in ~/.bunfig.toml,
// keeping every other setting in the file intact.
func (m *MirrorConfigurator) ConfigureBun() bool {
	cfg, err := m.readBunfig()
	if err != nil {
		return false
	}
	install, _ := cfg["install"].(map[string]any)
	if install == nil {
		install = map[string]any{}
	}
	install["registry"] = m.registry.Bun
	cfg["install"] = install
	return m.writeBunfig(cfg)
}

// VerifyBun checks install.registry in ~/.bunfig.toml.
func (m *MirrorConfigurator) VerifyBun() bool {
	cfg, err := m.readBunfig()
	if err != nil {
		return false
	}
	registry := m.bunRegistryIn(cfg)
	if registry == "" {
		return false
	}
	return strings.TrimRight(registry, "/") == strings.TrimRight(m.registry.Bun, "/")
}

// ResetBun drops the registry override from ~/.bunfig.toml. An absent file
// already is the reset state.
func (m *MirrorConfigurator) ResetBun() bool {
	if _, err := os.Stat(m.bunfigPath()); os.IsNotExist(err) {
		return true
	}
	cfg, err := m.readBunfig()
	if err != nil {
		return false
	}
	install, _ := cfg["install"].(map[string]any)
	if install == nil {
		return true
	}
	delete(install, "registry")
	if len(install) == 0 {
		delete(cfg, "install")
	} else {
		cfg["install"] = install
	}
	return m.writeBunfig(cfg)
}

func (m *MirrorConfigurator) readBunfig() (map[string]any, error) {
	cfg := map[string]any{}
	data, err := os.ReadFile(m.bunfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m *MirrorConfigurator) writeBunfig(cfg map[string]any) bool {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return false
	}
	return writeFileAtomic(m.bunfigPath(), buf.String()) == nil
}

func (m *MirrorConfigurator) bunRegistryIn(cfg map[string]any) string {
	install, _ := cfg["install"].(map[string]any)
	if install == nil {
		return ""
	}
	registry, _ := install["registry"].(string)
	return registry
}

// uv

// ConfigureUV writes ~/.config/uv/uv.toml with the CPython download mirror
// and the PyPI index. python-install-mirror is a top-level key and must
// stay above the [[index]] table, or uv attributes it to the index entry.
func (m *MirrorConfigurator) ConfigureUV() bool {
	content := strings.Join([]string{
		"# uv configuration",
		"# generated by mono-kickstart",
		"",
		"# CPython download mirror",
		`python-install-mirror = "` + m.registry.PythonInstall + `"`,
		"",
		"# PyPI registry",
		"[[index]]",
		`url = "` + m.registry.PyPI + `"`,
		"",
	}, "\n")
	return writeFileAtomic(m.uvConfigPath(), content) == nil
}

// VerifyUV checks both entries and their relative order in uv.toml.
func (m *MirrorConfigurator) VerifyUV() bool {
	data, err := os.ReadFile(m.uvConfigPath())
	if err != nil {
		return false
	}
	content := string(data)
	if !strings.Contains(content, `python-install-mirror = "`+m.registry.PythonInstall+`"`) {
		return false
	}
	if !strings.Contains(content, `url = "`+m.registry.PyPI+`"`) {
		return false
	}
	mirrorPos := strings.Index(content, "python-install-mirror")
	indexPos := strings.Index(content, "[[index]]")
	return mirrorPos >= 0 && indexPos >= 0 && mirrorPos < indexPos
}

// ResetUV deletes the generated uv.toml.
func (m *MirrorConfigurator) ResetUV() bool {
	err := os.Remove(m.uvConfigPath())
	return err == nil || os.IsNotExist(err)
}

// currentUV returns the configured PyPI index URL, "" when none is set.
func (m *MirrorConfigurator) currentUV() string {
	data, err := os.ReadFile(m.uvConfigPath())
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if after, found := strings.CutPrefix(line, `url = "`); found {
			return strings.TrimSuffix(after, `"`)
		}
	}
	return ""
}

// pip

// ConfigurePip writes ~/.pip/pip.conf pointing index-url at the PyPI
// mirror, for environments that use pip directly instead of uv.
func (m *MirrorConfigurator) ConfigurePip() bool {
	content := "[global]\nindex-url = " + m.registry.PyPI + "\n"
	return writeFileAtomic(m.pipConfigPath(), content) == nil
}

// VerifyPip checks the index-url entry in pip.conf.
func (m *MirrorConfigurator) VerifyPip() bool {
	data, err := os.ReadFile(m.pipConfigPath())
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "index-url = "+m.registry.PyPI)
}

// ResetPip deletes the generated pip.conf.
func (m *MirrorConfigurator) ResetPip() bool {
	err := os.Remove(m.pipConfigPath())
	return err == nil || os.IsNotExist(err)
}

// currentPip returns the configured index-url, "" when none is set.
func (m *MirrorConfigurator) currentPip() string {
	data, err := os.ReadFile(m.pipConfigPath())
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if after, found := strings.CutPrefix(line, "index-url = "); found {
			return after
		}
	}
	return ""
}

// conda

// condaRC is the shape of the ~/.condarc mk writes.
type condaRC struct {
	Channels        []string `yaml:"channels"`
	ShowChannelURLs bool     `yaml:"show_channel_urls"`
}

// ConfigureConda writes ~/.condarc with the mirror's main and r channels.
func (m *MirrorConfigurator) ConfigureConda() bool {
	base := strings.TrimSuffix(m.registry.Conda, "/")
	rc := condaRC{
		Channels: []string{
			base + "/pkgs/main",
			base + "/pkgs/r",
		},
		ShowChannelURLs: true,
	}
	data, err := yaml.Marshal(rc)
	if err != nil {
		return false
	}
	return writeFileAtomic(m.condarcPath(), string(data)) == nil
}

// VerifyConda checks that the first channel points at the mirror.
func (m *MirrorConfigurator) VerifyConda() bool {
	return m.currentConda() == strings.TrimSuffix(m.registry.Conda, "/")+"/pkgs/main"
}

// ResetConda deletes the generated .condarc.
func (m *MirrorConfigurator) ResetConda() bool {
	err := os.Remove(m.condarcPath())
	return err == nil || os.IsNotExist(err)
}

// currentConda returns the first configured channel, "" when none is set.
func (m *MirrorConfigurator) currentConda() string {
	data, err := os.ReadFile(m.condarcPath())
	if err != nil {
		return ""
	}
	var rc condaRC
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return ""
	}
	if len(rc.Channels) == 0 {
		return ""
	}
	return rc.Channels[0]
}

// ConfigureAll configures the registries the init flow cares about: npm,
// Bun, and uv. pip and conda are reachable through `mk config mirror`.
func (m *MirrorConfigurator) ConfigureAll(ctx context.Context) map[string]bool {
	return map[string]bool{
		"npm": m.ConfigureNPM(ctx),
		"bun": m.ConfigureBun(),
		"uv":  m.ConfigureUV(),
	}
}

// Configure writes the mirror configuration for one tool. Unknown names
// report false.
func (m *MirrorConfigurator) Configure(ctx context.Context, tool string) bool {
	switch tool {
	case "npm":
		return m.ConfigureNPM(ctx)
	case "bun":
		return m.ConfigureBun()
	case "uv":
		return m.ConfigureUV()
	case "pip":
		return m.ConfigurePip()
	case "conda":
		return m.ConfigureConda()
	}
	return false
}

// Reset removes the mirror configuration for one tool. Unknown names
// report false.
func (m *MirrorConfigurator) Reset(ctx context.Context, tool string) bool {
	switch tool {
	case "npm":
		return m.ResetNPM(ctx)
	case "bun":
		return m.ResetBun()
	case "uv":
		return m.ResetUV()
	case "pip":
		return m.ResetPip()
	case "conda":
		return m.ResetConda()
	}
	return false
}

// Status reports the configured and default endpoint for every mirror
// target, keyed by tool name.
func (m *MirrorConfigurator) Status(ctx context.Context) map[string]MirrorStatus {
	bunCfg, _ := m.readBunfig()
	return map[string]MirrorStatus{
		"npm":   {Configured: m.currentNPM(ctx), Default: upstreamNPMRegistry},
		"bun":   {Configured: m.bunRegistryIn(bunCfg), Default: upstreamNPMRegistry},
		"pip":   {Configured: m.currentPip(), Default: upstreamPyPI},
		"uv":    {Configured: m.currentUV(), Default: upstreamPyPI},
		"conda": {Configured: m.currentConda(), Default: upstreamConda + "/pkgs/main"},
	}
}

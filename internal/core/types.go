// Package core provides the business logic for mono-kickstart.
// It has zero UI dependencies and is independently testable.
package core

import "gopkg.in/yaml.v3"

// Config is the layered kickstart configuration, stored as YAML in
// .kickstartrc files and merged low-to-high priority.
type Config struct {
	Project  ProjectConfig         `yaml:"project,omitempty"`
	Tools    map[string]ToolConfig `yaml:"tools,omitempty"`
	Registry RegistryConfig        `yaml:"registry,omitempty"`
}

// ProjectConfig names the monorepo to scaffold.
type ProjectConfig struct {
	Name string `yaml:"name,omitempty"`
}

// ToolConfig is the per-tool configuration, keyed by tool name in Config.
type ToolConfig struct {
	Enabled      bool              `yaml:"enabled"`
	Version      string            `yaml:"version,omitempty"`
	InstallVia   string            `yaml:"install_via,omitempty"`
	ExtraOptions map[string]string `yaml:"extra_options,omitempty"`
}

// UnmarshalYAML decodes a tool entry with Enabled defaulting to true, so
// `node: {version: "22"}` keeps the tool enabled.
func (t *ToolConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ToolConfig
	raw := plain{Enabled: true}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*t = ToolConfig(raw)
	return nil
}

// RegistryConfig holds package-registry endpoints. The defaults point at
// China-region mirrors; `mk config mirror set default` switches to upstream.
type RegistryConfig struct {
	NPM           string `yaml:"npm,omitempty"`
	Bun           string `yaml:"bun,omitempty"`
	PyPI          string `yaml:"pypi,omitempty"`
	PythonInstall string `yaml:"python_install,omitempty"`
	Conda         string `yaml:"conda,omitempty"`
}

// DefaultRegistry returns the mirror endpoints used when no layer overrides them.
func DefaultRegistry() RegistryConfig {
	return RegistryConfig{
		NPM:           "https://registry.npmmirror.com/",
		Bun:           "https://registry.npmmirror.com/",
		PyPI:          "https://mirrors.sustech.edu.cn/pypi/web/simple",
		PythonInstall: "https://ghfast.top/https://github.com/astral-sh/python-build-standalone/releases/download",
		Conda:         "https://mirrors.sustech.edu.cn/anaconda",
	}
}

// InstallResult classifies the outcome of one install or upgrade attempt.
type InstallResult string

const (
	ResultSuccess InstallResult = "success"
	ResultSkipped InstallResult = "skipped"
	ResultFailed  InstallResult = "failed"
)

// InstallReport is the outcome record of one install or upgrade call.
// Reports describe an action taken; ToolStatus describes current reality.
type InstallReport struct {
	Tool    string
	Result  InstallResult
	Message string
	Version string
	Err     string
}

// Skipped builds a SKIPPED report for an already-present tool.
func Skipped(tool, version, message string) InstallReport {
	return InstallReport{Tool: tool, Result: ResultSkipped, Message: message, Version: version}
}

// Succeeded builds a SUCCESS report.
func Succeeded(tool, version, message string) InstallReport {
	return InstallReport{Tool: tool, Result: ResultSuccess, Message: message, Version: version}
}

// Failed builds a FAILED report. The error text is preserved separately from
// the human-readable message.
func Failed(tool, message, errText string) InstallReport {
	if errText == "" {
		errText = message
	}
	return InstallReport{Tool: tool, Result: ResultFailed, Message: message, Err: errText}
}

// ToolStatus is a point-in-time presence probe for one tool.
type ToolStatus struct {
	Name      string
	Installed bool
	Version   string
	Path      string
}

// MirrorStatus pairs the currently configured registry endpoint with the
// vendor's upstream default, for `mk config mirror show`.
type MirrorStatus struct {
	Configured string
	Default    string
}

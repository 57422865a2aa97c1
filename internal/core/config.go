package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const configFileName = ".kickstartrc"

// ConfigManager handles reading, merging, and writing kickstart configuration.
// Layers are merged low-to-high: defaults, then ~/.kickstartrc, then the
// project .kickstartrc, then an explicit --config path.
type ConfigManager struct {
	home    string
	workDir string
}

// NewConfigManager creates a ConfigManager rooted at the user's home
// directory and the current working directory.
func NewConfigManager() (*ConfigManager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return &ConfigManager{home: home, workDir: wd}, nil
}

// NewConfigManagerWithDirs creates a ConfigManager with explicit home and
// working directories. Useful for testing.
func NewConfigManagerWithDirs(home, workDir string) *ConfigManager {
	return &ConfigManager{home: home, workDir: workDir}
}

// UserConfigPath returns the path of the user-level config file.
func (cm *ConfigManager) UserConfigPath() string {
	return filepath.Join(cm.home, configFileName)
}

// ProjectConfigPath returns the path of the project-level config file.
func (cm *ConfigManager) ProjectConfigPath() string {
	return filepath.Join(cm.workDir, configFileName)
}

// Load reads and parses one YAML config file.
func (cm *ConfigManager) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path, creating parent directories if needed.
func (cm *ConfigManager) Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Write atomically: write to temp file then rename
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // clean up on failure
		return fmt.Errorf("saving config: %w", err)
	}

	return nil
}

// LoadWithPriority assembles the effective config. User and project files
// that are missing or unreadable are silently skipped; an explicit cliPath
// must load successfully.
func (cm *ConfigManager) LoadWithPriority(cliPath string) (*Config, error) {
	layers := []*Config{DefaultConfig()}

	if cfg, err := cm.Load(cm.UserConfigPath()); err == nil {
		layers = append(layers, cfg)
	}
	if cfg, err := cm.Load(cm.ProjectConfigPath()); err == nil {
		layers = append(layers, cfg)
	}
	if cliPath != "" {
		// The shell does not expand ~ inside quoted flag values.
		cfg, err := cm.Load(expandPath(cliPath))
		if err != nil {
			return nil, ConfigError(err.Error(), cliPath)
		}
		layers = append(layers, cfg)
	}

	return Merge(layers...), nil
}

// NewConfig returns an empty config with the registry set to its defaults.
func NewConfig() *Config {
	return &Config{
		Tools:    map[string]ToolConfig{},
		Registry: DefaultRegistry(),
	}
}

// DefaultConfig is the base layer of every merge: all orchestrated tools
// enabled, registry pointing at the default mirrors.
func DefaultConfig() *Config {
	cfg := NewConfig()
	for _, name := range InstallOrder {
		cfg.Tools[name] = ToolConfig{Enabled: true}
	}
	return cfg
}

// Merge folds configs left to right. The project name takes the last
// non-empty value; tool entries are replaced wholesale per key; registry
// fields are taken only when they differ from the built-in default, so a
// layer restating the default never overrides an earlier customization.
func Merge(configs ...*Config) *Config {
	result := NewConfig()
	defaults := DefaultRegistry()

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if cfg.Project.Name != "" {
			result.Project.Name = cfg.Project.Name
		}
		for name, tc := range cfg.Tools {
			result.Tools[name] = tc
		}
		if cfg.Registry.NPM != "" && cfg.Registry.NPM != defaults.NPM {
			result.Registry.NPM = cfg.Registry.NPM
		}
		if cfg.Registry.Bun != "" && cfg.Registry.Bun != defaults.Bun {
			result.Registry.Bun = cfg.Registry.Bun
		}
		if cfg.Registry.PyPI != "" && cfg.Registry.PyPI != defaults.PyPI {
			result.Registry.PyPI = cfg.Registry.PyPI
		}
		if cfg.Registry.PythonInstall != "" && cfg.Registry.PythonInstall != defaults.PythonInstall {
			result.Registry.PythonInstall = cfg.Registry.PythonInstall
		}
		if cfg.Registry.Conda != "" && cfg.Registry.Conda != defaults.Conda {
			result.Registry.Conda = cfg.Registry.Conda
		}
	}

	return result
}

// Validate checks a config for unknown tool names, bad install_via values,
// and empty registry endpoints. Returns human-readable errors; an empty
// slice means the config is valid.
func Validate(cfg *Config) []string {
	var errs []string

	names := make([]string, 0, len(cfg.Tools))
	for name := range cfg.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !KnownTool(name) {
			errs = append(errs, fmt.Sprintf("unknown tool name: %s", name))
		}
	}

	for _, name := range names {
		via := cfg.Tools[name].InstallVia
		switch via {
		case "", "bun", "npm", "brew":
		default:
			errs = append(errs, fmt.Sprintf("tool %s has invalid install_via: %s", name, via))
		}
	}

	registry := map[string]string{
		"npm":            cfg.Registry.NPM,
		"bun":            cfg.Registry.Bun,
		"pypi":           cfg.Registry.PyPI,
		"python_install": cfg.Registry.PythonInstall,
		"conda":          cfg.Registry.Conda,
	}
	for _, field := range []string{"npm", "bun", "pypi", "python_install", "conda"} {
		if strings.TrimSpace(registry[field]) == "" {
			errs = append(errs, fmt.Sprintf("registry %s URL must not be empty", field))
		}
	}

	return errs
}

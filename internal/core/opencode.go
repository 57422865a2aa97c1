package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// OpenCodePlugin describes one installable opencode plugin: the entry
// appended to the global plugin array, the project-local config skeleton,
// and the prefetch commands.
type OpenCodePlugin struct {
	Key           string
	Name          string
	Display       string
	LocalConfig   string // project-relative config file
	LocalSkeleton string
	BunxCommand   string
	NPXCommand    string
}

// OpenCodePlugins is the lookup table behind `mk opencode --plugin`.
var OpenCodePlugins = map[string]OpenCodePlugin{
	"omo": {
		Key:         "omo",
		Name:        "oh-my-opencode",
		Display:     "Oh My OpenCode",
		LocalConfig: ".opencode/oh-my-opencode.json",
		LocalSkeleton: `{
  "$schema": "https://raw.githubusercontent.com/code-yeongyu/oh-my-opencode/master/assets/oh-my-opencode.schema.json"
}
`,
		BunxCommand: "bunx oh-my-opencode install",
		NPXCommand:  "npx -y oh-my-opencode install",
	},
}

// OpenCodeConfigurator wires plugins into the opencode CLI: the global
// config at ~/.config/opencode/opencode.json names which plugins load,
// and a project-local file carries per-project plugin settings.
type OpenCodeConfigurator struct {
	workDir string
	home    string
	runner  Runner
	log     *log.Logger
	dryRun  bool

	// lookPath overrides PATH resolution in tests. Nil means the real PATH.
	lookPath func(name string) (string, bool)
}

// NewOpenCodeConfigurator returns a configurator for the project at
// workDir and the global config under home.
func NewOpenCodeConfigurator(workDir, home string, runner Runner, logger *log.Logger, dryRun bool) *OpenCodeConfigurator {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &OpenCodeConfigurator{
		workDir: workDir,
		home:    home,
		runner:  runner,
		log:     logger,
		dryRun:  dryRun,
	}
}

// GlobalConfigPath returns the opencode global config location.
func (o *OpenCodeConfigurator) GlobalConfigPath() string {
	return filepath.Join(o.home, ".config", "opencode", "opencode.json")
}

func (o *OpenCodeConfigurator) which(name string) (string, bool) {
	if o.lookPath != nil {
		return o.lookPath(name)
	}
	return LookPath(name)
}

// InstallPlugin registers the plugin in the global config, writes the
// project-local skeleton, and prefetches the plugin package. opencode
// fetches registered plugins itself on next start, so a prefetch failure
// is only a warning.
func (o *OpenCodeConfigurator) InstallPlugin(ctx context.Context, key string) error {
	plugin, ok := OpenCodePlugins[key]
	if !ok {
		return fmt.Errorf("unknown opencode plugin %q", key)
	}

	if _, found := o.which("opencode"); !found {
		return fmt.Errorf("opencode CLI is not installed, run `mk install opencode` first")
	}

	if o.dryRun {
		o.log.Info("[dry-run] would register plugin", "plugin", plugin.Name, "file", o.GlobalConfigPath())
		o.log.Info("[dry-run] would write", "file", plugin.LocalConfig)
		return nil
	}

	if err := o.registerPlugin(plugin); err != nil {
		return err
	}
	if err := o.writeLocalConfig(plugin); err != nil {
		return err
	}
	o.prefetch(ctx, plugin)
	return nil
}

// registerPlugin appends the plugin name to the global config's plugin
// array, creating the file or the array as needed. Other keys and already
// registered plugins are preserved; duplicates are not added.
func (o *OpenCodeConfigurator) registerPlugin(plugin OpenCodePlugin) error {
	path := o.GlobalConfigPath()

	content := ""
	if data, err := os.ReadFile(path); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if content != "" && !gjson.Valid(content) {
		o.log.Warn("opencode config is not valid JSON, starting fresh", "file", path)
		content = ""
	}
	if content == "" {
		content = "{}"
	}

	for _, entry := range gjson.Get(content, "plugin").Array() {
		if entry.String() == plugin.Name {
			o.log.Info("plugin already registered", "plugin", plugin.Name)
			return nil
		}
	}

	newContent, err := sjson.Set(content, "plugin.-1", plugin.Name)
	if err != nil {
		return fmt.Errorf("adding plugin entry: %w", err)
	}
	if err := writeFileAtomic(path, newContent); err != nil {
		return err
	}
	o.log.Info("plugin registered", "plugin", plugin.Name, "file", path)
	return nil
}

// writeLocalConfig writes the plugin's project-local config skeleton,
// leaving an existing file alone.
func (o *OpenCodeConfigurator) writeLocalConfig(plugin OpenCodePlugin) error {
	path := filepath.Join(o.workDir, filepath.FromSlash(plugin.LocalConfig))
	if pathExists(path) {
		o.log.Info("local plugin config already exists", "file", plugin.LocalConfig)
		return nil
	}
	if err := writeFileAtomic(path, plugin.LocalSkeleton); err != nil {
		return err
	}
	o.log.Info("local plugin config written", "file", plugin.LocalConfig)
	return nil
}

func (o *OpenCodeConfigurator) prefetch(ctx context.Context, plugin OpenCodePlugin) {
	command := plugin.NPXCommand
	if _, found := o.which("bun"); found {
		command = plugin.BunxCommand
	}
	result, err := o.runner.Run(ctx, command, RunOptions{
		Timeout: DefaultTimeout,
		Retries: 1,
	})
	if err != nil || result.ExitCode != 0 {
		o.log.Warn("plugin prefetch failed, opencode will fetch it on next start", "command", command)
	}
}

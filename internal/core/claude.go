package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tailscale/hujson"
)

const (
	claudeSettingsFile = ".claude/settings.local.json"

	// mcpRegisterTimeout bounds the optional `claude mcp add` call.
	mcpRegisterTimeout = 30 * time.Second
	// skillInitTimeout bounds the skill provider's init command.
	skillInitTimeout = 60 * time.Second
	// pluginCmdTimeout bounds each plugin installation command.
	pluginCmdTimeout = 120 * time.Second
)

// MCPServer describes one configurable MCP server. Key is the name users
// pass on the command line; Name is the entry key written under
// "mcpServers" in the settings file.
type MCPServer struct {
	Key        string
	Name       string
	Display    string
	Command    string
	Args       []string
	AddCommand string // claude CLI registration, run best-effort
}

// MCPServers is the lookup table behind `mk claude --mcp`.
var MCPServers = map[string]MCPServer{
	"chrome": {
		Key:        "chrome",
		Name:       "chrome-devtools",
		Display:    "Chrome DevTools MCP",
		Command:    "npx",
		Args:       []string{"chrome-devtools-mcp@latest"},
		AddCommand: "claude mcp add chrome-devtools -- npx chrome-devtools-mcp@latest",
	},
	"context7": {
		Key:        "context7",
		Name:       "context7",
		Display:    "Context7 MCP",
		Command:    "npx",
		Args:       []string{"-y", "@upstash/context7-mcp@latest"},
		AddCommand: "claude mcp add context7 -- npx -y @upstash/context7-mcp@latest",
	},
}

// AllowAllPermissions is the wholesale permission set written by
// `mk claude --allow all`.
var AllowAllPermissions = []string{
	"Bash(*)",
	"Edit(*)",
	"Write(*)",
	"Read(*)",
	"Glob(*)",
	"Grep(*)",
	"WebFetch(*)",
	"WebSearch(*)",
}

// claudeFeatures maps `--off` / `--on` names to their settings keys.
var claudeFeatures = map[string]string{
	"suggestion": "suggestions",
	"team":       "teammateMode",
}

// FeatureKey resolves a feature toggle name to its settings key.
func FeatureKey(name string) (string, bool) {
	key, ok := claudeFeatures[name]
	return key, ok
}

// SkillConfig describes one installable agent skill and the external CLI
// that provisions it.
type SkillConfig struct {
	Key         string
	Name        string // directory name under .claude/skills/
	Display     string
	CLI         string
	InitCommand string
	InstallHint string
}

// Skills is the lookup table behind `mk claude --skills`.
var Skills = map[string]SkillConfig{
	"uipro": {
		Key:         "uipro",
		Name:        "ui-ux-pro-max",
		Display:     "UIPro UI/UX skill",
		CLI:         "uipro",
		InitCommand: "uipro init --ai claude",
		InstallHint: "run `mk install uipro` first",
	},
}

// PluginConfig describes one installable Claude Code plugin. Commands run
// in order; the first failure aborts the installation.
type PluginConfig struct {
	Key      string
	Name     string
	Display  string
	CLI      string
	Commands []string
}

// Plugins is the lookup table behind `mk claude --plugin`.
var Plugins = map[string]PluginConfig{
	"omc": {
		Key:     "omc",
		Name:    "oh-my-claudecode",
		Display: "Oh My ClaudeCode",
		CLI:     "claude",
		Commands: []string{
			"claude /plugin marketplace add Yeachan-Heo/oh-my-claudecode",
			"claude /plugin install oh-my-claudecode@oh-my-claudecode",
			"curl -fsSL https://raw.githubusercontent.com/Yeachan-Heo/oh-my-claudecode/main/scripts/setup-statusline.sh | bash",
		},
	},
}

// ClaudeSettings edits the project-local Claude Code settings file,
// preserving every key it does not own. A corrupt settings file is
// replaced rather than treated as fatal.
type ClaudeSettings struct {
	workDir string
	runner  Runner
	log     *log.Logger
	dryRun  bool

	// lookPath overrides PATH resolution in tests. Nil means the real PATH.
	lookPath func(name string) (string, bool)
}

// NewClaudeSettings returns an editor rooted at workDir. The runner is
// used for the optional CLI registration and for skill and plugin
// installation commands.
func NewClaudeSettings(workDir string, runner Runner, logger *log.Logger, dryRun bool) *ClaudeSettings {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &ClaudeSettings{
		workDir: workDir,
		runner:  runner,
		log:     logger,
		dryRun:  dryRun,
	}
}

// Path returns the absolute settings file location.
func (s *ClaudeSettings) Path() string {
	return filepath.Join(s.workDir, filepath.FromSlash(claudeSettingsFile))
}

func (s *ClaudeSettings) which(name string) (string, bool) {
	if s.lookPath != nil {
		return s.lookPath(name)
	}
	return LookPath(name)
}

// load parses the settings file as a JWCC AST, starting from an empty
// object when the file is missing or unparseable.
func (s *ClaudeSettings) load() (hujson.Value, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return hujson.Parse([]byte("{}"))
		}
		return hujson.Value{}, fmt.Errorf("reading %s: %w", claudeSettingsFile, err)
	}
	root, err := hujson.Parse(data)
	if err != nil {
		s.log.Warn("settings file is not valid JSON, starting fresh", "file", claudeSettingsFile)
		return hujson.Parse([]byte("{}"))
	}
	return root, nil
}

func (s *ClaudeSettings) save(root *hujson.Value) error {
	root.Format()
	removeTrailingCommas(root)
	root.Standardize()
	return writeFileAtomic(s.Path(), string(root.Pack()))
}

// setValue writes valueJSON at the JSON Pointer ptr, creating any missing
// parent objects. Existing sibling members are untouched.
func setValue(root *hujson.Value, ptr string, valueJSON string) error {
	segments := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	parent := ""
	for _, seg := range segments[:len(segments)-1] {
		parent += "/" + seg
		if root.Find(parent) == nil {
			patch := fmt.Sprintf(`[{"op":"add","path":%q,"value":{}}]`, parent)
			if err := root.Patch([]byte(patch)); err != nil {
				return fmt.Errorf("creating %s: %w", parent, err)
			}
		}
	}

	op := "add"
	if root.Find(ptr) != nil {
		op = "replace"
	}
	patch := fmt.Sprintf(`[{"op":%q,"path":%q,"value":%s}]`, op, ptr, valueJSON)
	if err := root.Patch([]byte(patch)); err != nil {
		return fmt.Errorf("setting %s: %w", ptr, err)
	}
	return nil
}

// AddMCPServer writes the server's entry under "mcpServers", replacing a
// same-name entry and preserving all others. When the claude CLI is on
// PATH the server is also registered through `claude mcp add`; a failure
// there is logged and ignored since the settings file already carries the
// configuration.
func (s *ClaudeSettings) AddMCPServer(ctx context.Context, key string) error {
	server, ok := MCPServers[key]
	if !ok {
		return fmt.Errorf("unknown MCP server %q", key)
	}

	if s.dryRun {
		s.log.Info("[dry-run] would configure MCP server", "server", server.Name, "file", claudeSettingsFile)
		return nil
	}

	root, err := s.load()
	if err != nil {
		return err
	}
	value, err := json.Marshal(map[string]any{
		"command": server.Command,
		"args":    server.Args,
	})
	if err != nil {
		return fmt.Errorf("encoding MCP entry: %w", err)
	}
	ptr := "/mcpServers/" + jsonPointerEscape(server.Name)
	if err := setValue(&root, ptr, string(value)); err != nil {
		return err
	}
	if err := s.save(&root); err != nil {
		return err
	}
	s.log.Info("MCP server configured", "server", server.Name, "file", claudeSettingsFile)

	s.registerWithCLI(ctx, server)
	return nil
}

func (s *ClaudeSettings) registerWithCLI(ctx context.Context, server MCPServer) {
	if _, found := s.which("claude"); !found {
		return
	}
	result, err := s.runner.Run(ctx, server.AddCommand, RunOptions{
		Timeout: mcpRegisterTimeout,
		Retries: 1,
	})
	if err != nil || result.ExitCode != 0 {
		s.log.Warn("claude mcp add failed, the settings file was still updated", "server", server.Name)
	}
}

// AllowAll replaces permissions.allow with the full permission set.
// Sibling permission keys such as "deny" are preserved.
func (s *ClaudeSettings) AllowAll() error {
	if s.dryRun {
		s.log.Info("[dry-run] would allow all permissions", "file", claudeSettingsFile)
		return nil
	}

	root, err := s.load()
	if err != nil {
		return err
	}
	value, err := json.Marshal(AllowAllPermissions)
	if err != nil {
		return fmt.Errorf("encoding permission list: %w", err)
	}
	if err := setValue(&root, "/permissions/allow", string(value)); err != nil {
		return err
	}
	if err := s.save(&root); err != nil {
		return err
	}
	s.log.Info("permissions configured", "allowed", len(AllowAllPermissions), "file", claudeSettingsFile)
	return nil
}

// SetPermissionMode sets the top-level permissionMode key.
func (s *ClaudeSettings) SetPermissionMode(mode string) error {
	if s.dryRun {
		s.log.Info("[dry-run] would set permission mode", "mode", mode)
		return nil
	}

	root, err := s.load()
	if err != nil {
		return err
	}
	value, err := json.Marshal(mode)
	if err != nil {
		return fmt.Errorf("encoding mode: %w", err)
	}
	if err := setValue(&root, "/permissionMode", string(value)); err != nil {
		return err
	}
	if err := s.save(&root); err != nil {
		return err
	}
	s.log.Info("permission mode configured", "mode", mode)
	return nil
}

// SetFeature toggles a named feature flag in the settings file.
func (s *ClaudeSettings) SetFeature(name string, enabled bool) error {
	key, ok := claudeFeatures[name]
	if !ok {
		return fmt.Errorf("unknown feature %q", name)
	}

	if s.dryRun {
		s.log.Info("[dry-run] would toggle feature", "feature", key, "enabled", enabled)
		return nil
	}

	root, err := s.load()
	if err != nil {
		return err
	}
	if err := setValue(&root, "/"+jsonPointerEscape(key), strconv.FormatBool(enabled)); err != nil {
		return err
	}
	if err := s.save(&root); err != nil {
		return err
	}
	s.log.Info("feature toggled", "feature", key, "enabled", enabled)
	return nil
}

// InstallSkill provisions an agent skill through its provider CLI. The
// CLI must be on PATH even in dry-run mode; the skill directory check
// afterwards is advisory since providers lay files out themselves.
func (s *ClaudeSettings) InstallSkill(ctx context.Context, key string) error {
	skill, ok := Skills[key]
	if !ok {
		return fmt.Errorf("unknown skill %q", key)
	}

	if _, found := s.which(skill.CLI); !found {
		return fmt.Errorf("%s CLI is not installed, %s", skill.CLI, skill.InstallHint)
	}

	if s.dryRun {
		s.log.Info("[dry-run] would run", "command", skill.InitCommand)
		return nil
	}

	skillDir := filepath.Join(s.workDir, ".claude", "skills", skill.Name)
	existed := dirExists(skillDir)
	if existed {
		s.log.Warn("skill directory already exists, reinstalling", "skill", skill.Name)
	}

	result, err := s.runner.Run(ctx, skill.InitCommand, RunOptions{
		Timeout: skillInitTimeout,
		Retries: 1,
	})
	if err != nil {
		return fmt.Errorf("running %q: %w", skill.InitCommand, err)
	}
	if result.ExitCode != 0 {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", result.ExitCode)
		}
		return fmt.Errorf("%q failed: %s", skill.InitCommand, detail)
	}

	if !existed && !dirExists(skillDir) {
		s.log.Warn("skill directory was not created, the skill may not be active", "dir", skillDir)
	}
	s.log.Info("skill installed", "skill", skill.Name)
	return nil
}

// InstallPlugin runs a plugin's installation commands in order, stopping
// at the first failure. The plugin's host CLI must be on PATH even in
// dry-run mode.
func (s *ClaudeSettings) InstallPlugin(ctx context.Context, key string) error {
	plugin, ok := Plugins[key]
	if !ok {
		return fmt.Errorf("unknown plugin %q", key)
	}

	if _, found := s.which(plugin.CLI); !found {
		return fmt.Errorf("%s CLI is not installed, run `mk install claude-code` first", plugin.CLI)
	}

	if s.dryRun {
		for _, command := range plugin.Commands {
			s.log.Info("[dry-run] would run", "command", command)
		}
		return nil
	}

	for _, command := range plugin.Commands {
		result, err := s.runner.Run(ctx, command, RunOptions{
			Timeout: pluginCmdTimeout,
			Retries: 1,
		})
		if err != nil {
			return fmt.Errorf("running %q: %w", command, err)
		}
		if result.ExitCode != 0 {
			detail := strings.TrimSpace(result.Stderr)
			if detail == "" {
				detail = fmt.Sprintf("exit code %d", result.ExitCode)
			}
			return fmt.Errorf("%q failed: %s", command, detail)
		}
	}
	s.log.Info("plugin installed", "plugin", plugin.Name)
	return nil
}

// jsonPointerEscape escapes a string for use as a JSON Pointer token
// (RFC 6901).
func jsonPointerEscape(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			result = append(result, '~', '0')
		case '/':
			result = append(result, '~', '1')
		default:
			result = append(result, s[i])
		}
	}
	return string(result)
}

// removeTrailingCommas walks the JWCC AST and removes trailing commas so
// Standardize produces plain JSON.
func removeTrailingCommas(v *hujson.Value) {
	switch vv := v.Value.(type) {
	case *hujson.Object:
		for i := range vv.Members {
			removeTrailingCommas(&vv.Members[i].Name)
			removeTrailingCommas(&vv.Members[i].Value)
		}
		if len(vv.Members) > 0 {
			vv.Members[len(vv.Members)-1].Value.AfterExtra = nil
		}
	case *hujson.Array:
		for i := range vv.Elements {
			removeTrailingCommas(&vv.Elements[i])
		}
		if len(vv.Elements) > 0 {
			vv.Elements[len(vv.Elements)-1].AfterExtra = nil
		}
	}
}

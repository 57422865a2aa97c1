package core

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultConfigEnablesInstallOrder(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Tools) != len(InstallOrder) {
		t.Fatalf("tools = %d entries, want %d", len(cfg.Tools), len(InstallOrder))
	}
	for _, name := range InstallOrder {
		tc, ok := cfg.Tools[name]
		if !ok {
			t.Errorf("tool %s missing from defaults", name)
			continue
		}
		if !tc.Enabled {
			t.Errorf("tool %s disabled by default", name)
		}
	}
	if cfg.Registry != DefaultRegistry() {
		t.Errorf("registry = %+v", cfg.Registry)
	}
}

func TestMergeLaterToolEntryWins(t *testing.T) {
	a := NewConfig()
	a.Tools["node"] = ToolConfig{Enabled: true, Version: "20"}
	b := NewConfig()
	b.Tools["node"] = ToolConfig{Enabled: false}

	got := Merge(a, b).Tools["node"]
	// Entries replace wholesale: the version from the earlier layer must
	// not leak into the later entry.
	if got.Enabled || got.Version != "" {
		t.Errorf("merged node = %+v, want the later entry verbatim", got)
	}

	got = Merge(b, a).Tools["node"]
	if !got.Enabled || got.Version != "20" {
		t.Errorf("merged node = %+v, want the later entry verbatim", got)
	}
}

func TestMergeEmptyConfigIdentity(t *testing.T) {
	cfg := NewConfig()
	cfg.Project.Name = "my-mono"
	cfg.Tools["bun"] = ToolConfig{Enabled: true, InstallVia: "npm"}
	cfg.Tools["node"] = ToolConfig{Enabled: false, Version: "22"}

	left := Merge(NewConfig(), cfg)
	right := Merge(cfg, NewConfig())

	for name, merged := range map[string]*Config{"left": left, "right": right} {
		if merged.Project.Name != cfg.Project.Name {
			t.Errorf("%s identity broke project.name: %q", name, merged.Project.Name)
		}
		if !reflect.DeepEqual(merged.Tools, cfg.Tools) {
			t.Errorf("%s identity broke tools: %+v", name, merged.Tools)
		}
	}
}

func TestMergeRegistryKeepsCustomOverDefault(t *testing.T) {
	custom := NewConfig()
	custom.Registry.NPM = "https://npm.internal.example.com/"

	// A later layer restating the built-in default must not clobber the
	// earlier customization.
	restated := NewConfig()
	restated.Registry = DefaultRegistry()

	got := Merge(custom, restated).Registry.NPM
	if got != "https://npm.internal.example.com/" {
		t.Errorf("npm registry = %s, custom value was clobbered by a default", got)
	}

	// A later non-default value still wins.
	override := NewConfig()
	override.Registry.NPM = "https://npm.other.example.com/"
	got = Merge(custom, override).Registry.NPM
	if got != "https://npm.other.example.com/" {
		t.Errorf("npm registry = %s, want the later custom value", got)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDirs(dir, dir)

	cfg := NewConfig()
	cfg.Project.Name = "acme-mono"
	cfg.Tools["node"] = ToolConfig{Enabled: true, Version: "22"}
	cfg.Tools["conda"] = ToolConfig{
		Enabled:      true,
		ExtraOptions: map[string]string{"python_version": "3.11"},
	}
	cfg.Tools["codex"] = ToolConfig{Enabled: false, InstallVia: "npm"}
	cfg.Registry.NPM = "https://registry.npmmirror.com/"
	cfg.Registry.Conda = "https://mirrors.example.com/anaconda"

	path := filepath.Join(dir, configFileName)
	if err := cm.Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := cm.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Project.Name != cfg.Project.Name {
		t.Errorf("project.name = %q", loaded.Project.Name)
	}
	if !reflect.DeepEqual(loaded.Tools, cfg.Tools) {
		t.Errorf("tools round trip:\ngot  %+v\nwant %+v", loaded.Tools, cfg.Tools)
	}
	if loaded.Registry != cfg.Registry {
		t.Errorf("registry round trip:\ngot  %+v\nwant %+v", loaded.Registry, cfg.Registry)
	}
}

func TestToolConfigEnabledDefaultsTrue(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDirs(dir, dir)

	path := filepath.Join(dir, configFileName)
	content := "tools:\n  node:\n    version: \"22\"\n  codex:\n    enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := cm.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Tools["node"].Enabled {
		t.Error("node without an enabled key should default to enabled")
	}
	if cfg.Tools["node"].Version != "22" {
		t.Errorf("node version = %q", cfg.Tools["node"].Version)
	}
	if cfg.Tools["codex"].Enabled {
		t.Error("explicit enabled: false was ignored")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDirs(dir, dir)

	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte("tools: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := cm.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadWithPriorityLayering(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	cm := NewConfigManagerWithDirs(home, work)

	userCfg := "project:\n  name: user-name\ntools:\n  node:\n    version: \"20\"\n  bun:\n    enabled: false\n"
	if err := os.WriteFile(cm.UserConfigPath(), []byte(userCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	projectCfg := "project:\n  name: project-name\ntools:\n  node:\n    version: \"22\"\n"
	if err := os.WriteFile(cm.ProjectConfigPath(), []byte(projectCfg), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := cm.LoadWithPriority("")
	if err != nil {
		t.Fatalf("LoadWithPriority: %v", err)
	}

	if cfg.Project.Name != "project-name" {
		t.Errorf("project.name = %q, project layer should win", cfg.Project.Name)
	}
	if cfg.Tools["node"].Version != "22" {
		t.Errorf("node version = %q, project layer should win", cfg.Tools["node"].Version)
	}
	if cfg.Tools["bun"].Enabled {
		t.Error("user layer's bun disable was lost")
	}
	// Tools never mentioned stay at their defaults.
	if !cfg.Tools["uv"].Enabled {
		t.Error("uv should remain enabled from the default layer")
	}
}

func TestLoadWithPriorityExplicitPathMustExist(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigManagerWithDirs(dir, dir)

	_, err := cm.LoadWithPriority(filepath.Join(dir, "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
	if CodeFor(err) != ExitConfig {
		t.Errorf("exit code = %d, want %d", CodeFor(err), ExitConfig)
	}
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()
	cfg.Registry = DefaultRegistry()
	cfg.Tools["not-a-real-tool"] = ToolConfig{Enabled: true}
	cfg.Tools["node"] = ToolConfig{Enabled: true, InstallVia: "cargo"}

	errs := Validate(cfg)
	if len(errs) == 0 {
		t.Fatal("expected validation errors")
	}
	joined := strings.Join(errs, "\n")
	if !strings.Contains(joined, "not-a-real-tool") {
		t.Errorf("unknown tool not reported: %v", errs)
	}
	if !strings.Contains(joined, "cargo") {
		t.Errorf("invalid install_via not reported: %v", errs)
	}
}

func TestValidateEmptyRegistryURL(t *testing.T) {
	cfg := NewConfig()
	cfg.Registry = DefaultRegistry()
	cfg.Registry.NPM = "  "

	errs := Validate(cfg)
	found := false
	for _, e := range errs {
		if strings.Contains(e, "npm") {
			found = true
		}
	}
	if !found {
		t.Errorf("blank npm registry not reported: %v", errs)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if errs := Validate(DefaultConfig()); len(errs) != 0 {
		t.Errorf("default config should validate cleanly: %v", errs)
	}
}

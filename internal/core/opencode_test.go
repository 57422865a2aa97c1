package core

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func newOpenCodeTest(t *testing.T, present map[string]bool, dryRun bool) (*OpenCodeConfigurator, *recordingRunner) {
	t.Helper()
	runner := &recordingRunner{}
	o := NewOpenCodeConfigurator(t.TempDir(), t.TempDir(), runner, log.New(io.Discard), dryRun)
	o.lookPath = func(name string) (string, bool) {
		if present[name] {
			return "/usr/local/bin/" + name, true
		}
		return "", false
	}
	return o, runner
}

func readGlobalConfig(t *testing.T, o *OpenCodeConfigurator) map[string]any {
	t.Helper()
	data, err := os.ReadFile(o.GlobalConfigPath())
	if err != nil {
		t.Fatalf("reading global config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("global config is not valid JSON: %v\n%s", err, data)
	}
	return m
}

func pluginList(t *testing.T, cfg map[string]any) []string {
	t.Helper()
	raw, ok := cfg["plugin"].([]any)
	if !ok {
		t.Fatalf("plugin array missing: %v", cfg)
	}
	var out []string
	for _, v := range raw {
		out = append(out, v.(string))
	}
	return out
}

func TestOpenCodePluginRegistersInGlobalConfig(t *testing.T) {
	o, runner := newOpenCodeTest(t, map[string]bool{"opencode": true, "bun": true}, false)

	if err := o.InstallPlugin(context.Background(), "omo"); err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}

	plugins := pluginList(t, readGlobalConfig(t, o))
	if len(plugins) != 1 || plugins[0] != "oh-my-opencode" {
		t.Errorf("plugin array = %v", plugins)
	}

	local := filepath.Join(o.workDir, ".opencode", "oh-my-opencode.json")
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("local config not written: %v", err)
	}
	if !strings.Contains(string(data), "$schema") {
		t.Errorf("local config lacks schema reference:\n%s", data)
	}

	if len(runner.calls) != 1 || runner.calls[0] != "bunx oh-my-opencode install" {
		t.Errorf("prefetch calls = %v", runner.calls)
	}
}

func TestOpenCodePluginUsesNpxWithoutBun(t *testing.T) {
	o, runner := newOpenCodeTest(t, map[string]bool{"opencode": true}, false)

	if err := o.InstallPlugin(context.Background(), "omo"); err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "npx -y oh-my-opencode install" {
		t.Errorf("prefetch calls = %v", runner.calls)
	}
}

func TestOpenCodePluginPreservesExistingConfig(t *testing.T) {
	o, _ := newOpenCodeTest(t, map[string]bool{"opencode": true}, false)

	path := o.GlobalConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	existing := `{"theme": "tokyonight", "plugin": ["some-other-plugin"], "model": "anthropic/claude"}`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := o.InstallPlugin(context.Background(), "omo"); err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}

	cfg := readGlobalConfig(t, o)
	if cfg["theme"] != "tokyonight" || cfg["model"] != "anthropic/claude" {
		t.Errorf("existing keys were dropped: %v", cfg)
	}
	plugins := pluginList(t, cfg)
	if len(plugins) != 2 || plugins[0] != "some-other-plugin" || plugins[1] != "oh-my-opencode" {
		t.Errorf("plugin array = %v", plugins)
	}
}

func TestOpenCodePluginNoDuplicate(t *testing.T) {
	o, _ := newOpenCodeTest(t, map[string]bool{"opencode": true}, false)

	path := o.GlobalConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"plugin": ["oh-my-opencode"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := o.InstallPlugin(context.Background(), "omo"); err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}
	if plugins := pluginList(t, readGlobalConfig(t, o)); len(plugins) != 1 {
		t.Errorf("plugin registered twice: %v", plugins)
	}
}

func TestOpenCodePluginRecoversFromCorruptConfig(t *testing.T) {
	o, _ := newOpenCodeTest(t, map[string]bool{"opencode": true}, false)

	path := o.GlobalConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not valid json{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := o.InstallPlugin(context.Background(), "omo"); err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}
	plugins := pluginList(t, readGlobalConfig(t, o))
	if len(plugins) != 1 || plugins[0] != "oh-my-opencode" {
		t.Errorf("plugin array = %v", plugins)
	}
}

func TestOpenCodePluginRequiresCLI(t *testing.T) {
	o, runner := newOpenCodeTest(t, nil, false)

	err := o.InstallPlugin(context.Background(), "omo")
	if err == nil {
		t.Fatal("expected error when opencode is missing")
	}
	if !strings.Contains(err.Error(), "opencode") {
		t.Errorf("error should name the missing CLI: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("commands ran without the CLI: %v", runner.calls)
	}
}

func TestOpenCodePluginDryRun(t *testing.T) {
	o, runner := newOpenCodeTest(t, map[string]bool{"opencode": true, "bun": true}, true)

	if err := o.InstallPlugin(context.Background(), "omo"); err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}
	if _, err := os.Stat(o.GlobalConfigPath()); !os.IsNotExist(err) {
		t.Error("dry run wrote the global config")
	}
	if len(runner.calls) != 0 {
		t.Errorf("dry run executed commands: %v", runner.calls)
	}
}

func TestOpenCodePluginKeepsLocalConfig(t *testing.T) {
	o, _ := newOpenCodeTest(t, map[string]bool{"opencode": true}, false)

	local := filepath.Join(o.workDir, ".opencode", "oh-my-opencode.json")
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		t.Fatal(err)
	}
	custom := `{"$schema": "...", "agents": {"custom": true}}`
	if err := os.WriteFile(local, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := o.InstallPlugin(context.Background(), "omo"); err != nil {
		t.Fatalf("InstallPlugin: %v", err)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != custom {
		t.Errorf("customized local config was overwritten:\n%s", data)
	}
}

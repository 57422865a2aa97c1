package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/monokickstart/mk/internal/core"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

// deliver feeds one message into the model and chases the wizard flow
// messages its command emits. Anything else a command produces (cursor
// blinks, batched step inits, quit) is dropped, because executing those
// would block on timers.
func deliver(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	var cmd tea.Cmd
	m, cmd = m.Update(msg)
	if cmd == nil {
		return m
	}
	switch out := cmd().(type) {
	case wizardNextMsg, wizardDoneMsg, wizardBackMsg, reviewDeclinedMsg:
		return deliver(t, m, out)
	default:
		return m
	}
}

func drive(t *testing.T, m tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		m = deliver(t, m, msg)
	}
	return m
}

func wizardState(t *testing.T, m tea.Model) initWizardModel {
	t.Helper()
	w, ok := m.(initWizardModel)
	if !ok {
		t.Fatalf("model is %T, want initWizardModel", m)
	}
	return w
}

func TestNewInitWizardDefaults(t *testing.T) {
	m := newInitWizard(core.DefaultConfig(), nil, "demo")

	if m.projectName != "demo" {
		t.Errorf("project name = %q, want demo", m.projectName)
	}
	if len(m.tools) != len(core.InstallOrder) {
		t.Fatalf("wizard lists %d tools, want %d", len(m.tools), len(core.InstallOrder))
	}
	for _, box := range m.tools {
		if !box.checked {
			t.Errorf("%s starts unchecked, want checked", box.name)
		}
	}
	if m.nodeVersion != "lts" {
		t.Errorf("node version = %q, want lts", m.nodeVersion)
	}
	if m.pythonVersion != "3.11" {
		t.Errorf("python version = %q, want 3.11", m.pythonVersion)
	}
	if m.mirrorPreset != "china" {
		t.Errorf("mirror preset = %q, want china", m.mirrorPreset)
	}
	if m.wizard.activeIdx != stepProject {
		t.Errorf("wizard starts at step %d, want %d", m.wizard.activeIdx, stepProject)
	}
}

func TestInitWizardSeedsFromConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Tools["bun"] = core.ToolConfig{Enabled: false}
	cfg.Tools["node"] = core.ToolConfig{Enabled: true, Version: "20.11.1"}
	cfg.Tools["conda"] = core.ToolConfig{
		Enabled:      true,
		ExtraOptions: map[string]string{"python_version": "3.12"},
	}

	m := newInitWizard(cfg, nil, "app")

	for _, box := range m.tools {
		if box.name == "bun" && box.checked {
			t.Error("bun is disabled in the config but starts checked")
		}
	}
	if m.nodeVersion != "20.11.1" {
		t.Errorf("node version = %q, want the configured pin", m.nodeVersion)
	}
	if m.pythonVersion != "3.12" {
		t.Errorf("python version = %q, want 3.12", m.pythonVersion)
	}

	nodeStep, ok := m.wizard.steps[stepNode].content.(nodeStepModel)
	if !ok {
		t.Fatal("node step has the wrong model type")
	}
	if !nodeStep.custom() {
		t.Error("a pinned node version should preselect the custom choice")
	}
	if nodeStep.input.Value() != "20.11.1" {
		t.Errorf("custom input = %q, want 20.11.1", nodeStep.input.Value())
	}
}

func TestInitWizardAnnotatesDetectedTools(t *testing.T) {
	detected := map[string]core.ToolStatus{
		"node": {Name: "node", Installed: true, Version: "22.1.0"},
	}
	m := newInitWizard(core.DefaultConfig(), detected, "demo")

	view := m.wizard.steps[stepTools].content.View()
	if !strings.Contains(view, "installed v22.1.0") {
		t.Errorf("tools view does not mention the detected node:\n%s", view)
	}
}

func TestInitWizardFullFlow(t *testing.T) {
	m := tea.Model(newInitWizard(core.DefaultConfig(), nil, "demo"))

	m = drive(t, m, enterKey) // project
	if w := wizardState(t, m); w.wizard.activeIdx != stepTools {
		t.Fatalf("after project step at %d, want %d", w.wizard.activeIdx, stepTools)
	}

	m = drive(t, m, enterKey) // tools
	m = drive(t, m, enterKey) // node (LTS)
	m = drive(t, m, enterKey) // python (3.11)
	m = drive(t, m, enterKey) // registries (china)
	if w := wizardState(t, m); w.wizard.activeIdx != stepReview {
		t.Fatalf("after all steps at %d, want review", w.wizard.activeIdx)
	}

	m = drive(t, m, keyRunes("y"))
	w := wizardState(t, m)
	if !w.confirmed {
		t.Fatal("y on the review step should confirm")
	}

	s := w.selections()
	if s.ProjectName != "demo" {
		t.Errorf("project = %q, want demo", s.ProjectName)
	}
	if len(s.Tools) != len(core.InstallOrder) {
		t.Errorf("selections cover %d tools, want %d", len(s.Tools), len(core.InstallOrder))
	}
	if !s.Tools["node"] || !s.Tools["conda"] {
		t.Error("default selections should keep node and conda enabled")
	}
	if s.NodeVersion != "lts" {
		t.Errorf("node version = %q, want lts", s.NodeVersion)
	}
	if s.PythonVersion != "3.11" {
		t.Errorf("python version = %q, want 3.11", s.PythonVersion)
	}
	if s.MirrorPreset != "china" {
		t.Errorf("mirror preset = %q, want china", s.MirrorPreset)
	}
}

func TestInitWizardSkipsStepsForUncheckedTools(t *testing.T) {
	m := tea.Model(newInitWizard(core.DefaultConfig(), nil, "demo"))
	m = drive(t, m, enterKey) // to tools

	// InstallOrder starts nvm, node, conda: move down and uncheck both.
	m = drive(t, m, keyRunes("j"), keyRunes("x")) // node off
	m = drive(t, m, keyRunes("j"), keyRunes("x")) // conda off
	m = drive(t, m, enterKey)

	w := wizardState(t, m)
	if w.wizard.activeIdx != stepMirror {
		t.Fatalf("at step %d, want the registry step with node and python skipped", w.wizard.activeIdx)
	}

	m = drive(t, m, enterKey) // registries
	m = drive(t, m, keyRunes("y"))
	s := wizardState(t, m).selections()

	if s.Tools["node"] || s.Tools["conda"] {
		t.Error("unchecked tools leaked into the selections")
	}
	if s.NodeVersion != "" || s.PythonVersion != "" {
		t.Errorf("versions = %q/%q, want empty for unchecked tools", s.NodeVersion, s.PythonVersion)
	}
}

func TestInitWizardCustomNodeVersion(t *testing.T) {
	m := tea.Model(newInitWizard(core.DefaultConfig(), nil, "demo"))
	m = drive(t, m, enterKey, enterKey) // to node step

	m = drive(t, m, keyRunes("j"), keyRunes("j")) // LTS -> Latest -> Custom
	m = drive(t, m, keyRunes("23.5.0"))
	m = drive(t, m, enterKey)

	w := wizardState(t, m)
	if w.nodeVersion != "23.5.0" {
		t.Errorf("node version = %q, want 23.5.0", w.nodeVersion)
	}
}

func TestInitWizardCustomNodeRequiresValue(t *testing.T) {
	m := tea.Model(newInitWizard(core.DefaultConfig(), nil, "demo"))
	m = drive(t, m, enterKey, enterKey)           // to node step
	m = drive(t, m, keyRunes("j"), keyRunes("j")) // select Custom
	m = drive(t, m, enterKey)                     // empty value: must not advance

	if w := wizardState(t, m); w.wizard.activeIdx != stepNode {
		t.Fatalf("empty custom version advanced to step %d", w.wizard.activeIdx)
	}
}

func TestInitWizardDeclineAborts(t *testing.T) {
	m := tea.Model(newInitWizard(core.DefaultConfig(), nil, "demo"))
	m = drive(t, m, enterKey, enterKey, enterKey, enterKey, enterKey)
	m = drive(t, m, keyRunes("n"))

	w := wizardState(t, m)
	if !w.aborted {
		t.Error("declining the review should abort")
	}
	if w.confirmed {
		t.Error("declined run must not be confirmed")
	}
}

func TestInitWizardEscAborts(t *testing.T) {
	m := tea.Model(newInitWizard(core.DefaultConfig(), nil, "demo"))
	m = drive(t, m, escKey)

	if w := wizardState(t, m); !w.aborted {
		t.Error("esc on the first step should abort the wizard")
	}
}

func TestInitWizardEscGoesBack(t *testing.T) {
	m := tea.Model(newInitWizard(core.DefaultConfig(), nil, "demo"))
	m = drive(t, m, enterKey, escKey)

	w := wizardState(t, m)
	if w.aborted {
		t.Error("esc on a later step must not abort")
	}
	if w.wizard.activeIdx != stepProject {
		t.Errorf("at step %d after esc, want the project step", w.wizard.activeIdx)
	}
}

func TestToolsStepToggleAll(t *testing.T) {
	boxes := []toolCheckbox{
		{name: "nvm", checked: true},
		{name: "node", checked: true},
	}
	step := newToolsStepModel(boxes)

	updated, _ := step.Update(keyRunes("a"))
	step = updated.(toolsStepModel)
	for _, box := range step.boxes {
		if box.checked {
			t.Errorf("%s still checked after all/none", box.name)
		}
	}

	updated, _ = step.Update(keyRunes("a"))
	step = updated.(toolsStepModel)
	for _, box := range step.boxes {
		if !box.checked {
			t.Errorf("%s still unchecked after second all/none", box.name)
		}
	}
}

func TestReviewStepButtons(t *testing.T) {
	step := newReviewStepModel("# Ready", 80)
	if !step.focusYes {
		t.Fatal("review should start with the confirm button focused")
	}

	updated, _ := step.Update(tea.KeyMsg{Type: tea.KeyTab})
	step = updated.(reviewStepModel)
	if step.focusYes {
		t.Fatal("tab should move focus to the abort button")
	}

	_, cmd := step.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should emit a message")
	}
	if _, ok := cmd().(reviewDeclinedMsg); !ok {
		t.Error("enter on the abort button should decline")
	}
}

func TestRenderToolStatus(t *testing.T) {
	out := RenderToolStatus([]core.ToolStatus{
		{Name: "node", Installed: true, Version: "22.1.0", Path: "/usr/local/bin/node"},
		{Name: "bun"},
	})

	for _, want := range []string{"node", "v22.1.0", "/usr/local/bin/node", "not installed", "1 of 2 installed"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderMirrorStatus(t *testing.T) {
	statuses := map[string]core.MirrorStatus{
		"npm":   {Configured: "https://registry.npmmirror.com/", Default: "https://registry.npmjs.org/"},
		"bun":   {Configured: "", Default: "https://registry.npmjs.org/"},
		"pip":   {Configured: "https://pypi.org/simple", Default: "https://pypi.org/simple"},
		"uv":    {Configured: "", Default: "https://pypi.org/simple"},
		"conda": {Configured: "", Default: "https://repo.anaconda.com/pkgs/main"},
	}
	tools := map[string]core.ToolStatus{
		"npm": {Name: "node", Installed: true},
		"bun": {Name: "bun", Installed: false},
	}

	out := RenderMirrorStatus(statuses, tools)
	for _, want := range []string{"registry.npmmirror.com", "not configured", "upstream default", "manager not installed"} {
		if !strings.Contains(out, want) {
			t.Errorf("mirror output missing %q:\n%s", want, out)
		}
	}
}

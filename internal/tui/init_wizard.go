package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/monokickstart/mk/internal/core"
)

// ErrAborted is returned by RunInitWizard when the user backs out of the
// setup flow, either at the review step or with esc/q on the way there.
var ErrAborted = errors.New("setup cancelled")

// Selections is everything the wizard collected. The init command folds it
// back into the effective configuration before running.
type Selections struct {
	ProjectName   string
	Tools         map[string]bool
	NodeVersion   string // "lts", "latest", or an explicit version
	PythonVersion string // only meaningful when conda is selected
	MirrorPreset  string // "china" or "default"
}

// Step indices. Node and Python are skipped when their tool is unchecked.
const (
	stepProject = iota
	stepTools
	stepNode
	stepPython
	stepMirror
	stepReview
)

// reviewDeclinedMsg is emitted when the user rejects the review summary.
type reviewDeclinedMsg struct{}

// RunInitWizard walks the user through the init choices interactively.
// Defaults come from cfg; detected marks tools that are already present so
// the selection list can say so. Returns ErrAborted when the user cancels.
func RunInitWizard(cfg *core.Config, detected map[string]core.ToolStatus, defaultName string) (Selections, error) {
	p := tea.NewProgram(newInitWizard(cfg, detected, defaultName))
	final, err := p.Run()
	if err != nil {
		return Selections{}, fmt.Errorf("running setup wizard: %w", err)
	}
	m, ok := final.(initWizardModel)
	if !ok || !m.confirmed {
		return Selections{}, ErrAborted
	}
	return m.selections(), nil
}

// initWizardModel is the top-level Bubble Tea model for `mk init
// --interactive`: a header, the step wizard, and a help line.
type initWizardModel struct {
	wizard wizardModel
	help   help.Model

	width, height int

	// Captured step data. Each field is filled in when its step advances.
	projectName   string
	tools         []toolCheckbox
	nodeVersion   string
	pythonVersion string
	mirrorPreset  string

	confirmed bool
	aborted   bool
}

func newInitWizard(cfg *core.Config, detected map[string]core.ToolStatus, defaultName string) initWizardModel {
	boxes := make([]toolCheckbox, 0, len(core.InstallOrder))
	for _, name := range core.InstallOrder {
		tc, ok := cfg.Tools[name]
		boxes = append(boxes, toolCheckbox{
			name:    name,
			checked: !ok || tc.Enabled,
			status:  detected[name],
		})
	}

	nodeVersion := cfg.Tools["node"].Version
	if nodeVersion == "" {
		nodeVersion = "lts"
	}
	pythonVersion := cfg.Tools["conda"].ExtraOptions["python_version"]
	if pythonVersion == "" {
		pythonVersion = "3.11"
	}

	m := initWizardModel{
		help:          help.New(),
		projectName:   defaultName,
		tools:         boxes,
		nodeVersion:   nodeVersion,
		pythonVersion: pythonVersion,
		mirrorPreset:  "china",
	}

	m.wizard = newWizardModel("Project Setup", []wizardStep{
		{name: "Project", content: newProjectStepModel(defaultName)},
		{name: "Tools", content: newToolsStepModel(boxes)},
		{name: "Node", content: newNodeStepModel(nodeVersion)},
		{name: "Python", content: newPythonStepModel(pythonVersion)},
		{name: "Registries", content: newMirrorStepModel()},
		{name: "Review", content: reviewStepModel{}},
	})
	return m
}

func (m initWizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.wizard = m.wizard.setSize(msg.Width, msg.Height)
		return m, nil

	case wizardNextMsg:
		m = m.capture()
		var cmd tea.Cmd
		m.wizard, cmd = m.wizard.update(msg)
		cmds := []tea.Cmd{cmd}
		// Auto-skip steps whose tool is unchecked.
		for m.wizard.activeIdx < stepReview && !m.stepApplies(m.wizard.activeIdx) {
			m.wizard, cmd = m.wizard.update(wizardNextMsg{})
			cmds = append(cmds, cmd)
		}
		if m.wizard.activeIdx == stepReview {
			m.wizard.steps[stepReview].content = newReviewStepModel(m.summaryMarkdown(), m.width)
		}
		return m, tea.Batch(cmds...)

	case wizardDoneMsg:
		m.confirmed = true
		return m, tea.Quit

	case reviewDeclinedMsg, wizardBackMsg:
		m.aborted = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.aborted = true
			return m, tea.Quit
		}
		if key.Matches(msg, keys.Quit) && !m.typing() {
			m.aborted = true
			return m, tea.Quit
		}
	}

	prev := m.wizard.activeIdx
	var cmd tea.Cmd
	m.wizard, cmd = m.wizard.update(msg)
	if m.wizard.activeIdx < prev {
		// Walking backwards can land on a skipped step too.
		for m.wizard.activeIdx > 0 && !m.stepApplies(m.wizard.activeIdx) {
			m.wizard.activeIdx--
		}
	}
	return m, cmd
}

func (m initWizardModel) View() string {
	if m.confirmed || m.aborted {
		return ""
	}
	header := logoStyle.Render(" mk ") + headerTitleStyle.Render(m.wizard.title)
	helpView := m.help.View(wizardHelpKeyMap{step: m.wizard.activeIdx})
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		header,
		"",
		m.wizard.view(),
		"",
		"  "+helpView,
	)
}

// capture copies the active step's state into the model before the wizard
// advances past it.
func (m initWizardModel) capture() initWizardModel {
	switch m.wizard.activeIdx {
	case stepProject:
		if step, ok := m.wizard.steps[stepProject].content.(projectStepModel); ok {
			if v := strings.TrimSpace(step.input.Value()); v != "" {
				m.projectName = v
			}
		}
	case stepTools:
		if step, ok := m.wizard.steps[stepTools].content.(toolsStepModel); ok {
			m.tools = step.boxes
		}
	case stepNode:
		if step, ok := m.wizard.steps[stepNode].content.(nodeStepModel); ok {
			if v := step.value(); v != "" {
				m.nodeVersion = v
			}
		}
	case stepPython:
		if step, ok := m.wizard.steps[stepPython].content.(pythonStepModel); ok {
			if v := strings.TrimSpace(step.input.Value()); v != "" {
				m.pythonVersion = v
			}
		}
	case stepMirror:
		if step, ok := m.wizard.steps[stepMirror].content.(mirrorStepModel); ok {
			m.mirrorPreset = mirrorChoices[step.cursor].value
		}
	}
	return m
}

func (m initWizardModel) stepApplies(idx int) bool {
	switch idx {
	case stepNode:
		return m.toolSelected("node")
	case stepPython:
		return m.toolSelected("conda")
	}
	return true
}

func (m initWizardModel) toolSelected(name string) bool {
	for _, box := range m.tools {
		if box.name == name {
			return box.checked
		}
	}
	return false
}

// typing reports whether the active step has a focused text input, in which
// case plain letters like q must not be treated as shortcuts.
func (m initWizardModel) typing() bool {
	step := m.wizard.activeStep()
	if step == nil {
		return false
	}
	switch content := step.content.(type) {
	case projectStepModel, pythonStepModel:
		return true
	case nodeStepModel:
		return content.custom()
	}
	return false
}

func (m initWizardModel) selections() Selections {
	tools := make(map[string]bool, len(m.tools))
	for _, box := range m.tools {
		tools[box.name] = box.checked
	}
	s := Selections{
		ProjectName:  m.projectName,
		Tools:        tools,
		MirrorPreset: m.mirrorPreset,
	}
	if tools["node"] {
		s.NodeVersion = m.nodeVersion
	}
	if tools["conda"] {
		s.PythonVersion = m.pythonVersion
	}
	return s
}

// summaryMarkdown builds the review text. It is rendered through glamour
// just before the review step becomes active.
func (m initWizardModel) summaryMarkdown() string {
	var b strings.Builder
	b.WriteString("# Ready to set up\n\n")
	fmt.Fprintf(&b, "**Project:** %s\n\n", m.projectName)
	b.WriteString("**Tools:**\n\n")

	selected := 0
	for _, box := range m.tools {
		if !box.checked {
			continue
		}
		selected++
		line := "- " + box.name
		switch box.name {
		case "node":
			line += " (" + m.nodeVersion + ")"
		case "conda":
			line += " (python " + m.pythonVersion + ")"
		}
		if box.status.Installed {
			line += " *(already installed, will be skipped)*"
		}
		b.WriteString(line + "\n")
	}
	if selected == 0 {
		b.WriteString("- none, only registries and the project skeleton\n")
	}

	fmt.Fprintf(&b, "\n**Registries:** %s\n", mirrorChoiceByValue(m.mirrorPreset).detail)
	return b.String()
}

// ---------------------------------------------------------------------------
// Step 1: Project name
// ---------------------------------------------------------------------------

type projectStepModel struct {
	input textinput.Model
}

func newProjectStepModel(defaultName string) projectStepModel {
	ti := textinput.New()
	ti.Placeholder = "my-monorepo"
	ti.CharLimit = 64
	ti.Width = 40
	ti.SetValue(defaultName)
	ti.Focus()
	return projectStepModel{input: ti}
}

func (m projectStepModel) Init() tea.Cmd {
	return m.input.Cursor.BlinkCmd()
}

func (m projectStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, keys.Enter) {
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			return m, func() tea.Msg { return wizardNextMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m projectStepModel) View() string {
	return "Project name:\n\n" + m.input.View() + "\n\n" +
		mutedStyle.Render("Used for package.json and the workspace layout.")
}

// ---------------------------------------------------------------------------
// Step 2: Tool selection
// ---------------------------------------------------------------------------

type toolCheckbox struct {
	name    string
	checked bool
	status  core.ToolStatus
}

type toolsStepModel struct {
	boxes  []toolCheckbox
	cursor int
}

func newToolsStepModel(boxes []toolCheckbox) toolsStepModel {
	copied := make([]toolCheckbox, len(boxes))
	copy(copied, boxes)
	return toolsStepModel{boxes: copied}
}

func (m toolsStepModel) Init() tea.Cmd { return nil }

func (m toolsStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(m.boxes)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.Toggle):
		if len(m.boxes) > 0 {
			m.boxes[m.cursor].checked = !m.boxes[m.cursor].checked
		}
	case key.Matches(keyMsg, keys.ToggleAll):
		m.toggleAll()
	case key.Matches(keyMsg, keys.Enter):
		return m, func() tea.Msg { return wizardNextMsg{} }
	}
	return m, nil
}

// toggleAll checks everything, or unchecks everything when anything is on.
func (m *toolsStepModel) toggleAll() {
	anyChecked := false
	for _, box := range m.boxes {
		if box.checked {
			anyChecked = true
			break
		}
	}
	for i := range m.boxes {
		m.boxes[i].checked = !anyChecked
	}
}

func (m toolsStepModel) View() string {
	var b strings.Builder
	b.WriteString(mutedStyle.Render("Select the tools to install:"))
	b.WriteString("\n\n")

	for i, box := range m.boxes {
		check := "[ ]"
		if box.checked {
			check = "[x]"
		}

		prefix := "  "
		name := normalItemStyle.Render(box.name)
		if i == m.cursor {
			prefix = "> "
			name = selectedItemStyle.Render(box.name)
		}

		line := prefix + check + " " + name
		if box.status.Installed {
			note := "installed"
			if box.status.Version != "" {
				note += " v" + box.status.Version
			}
			line += "  " + installedStyle.Render("✓") + " " + mutedStyle.Render(note)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Step 3: Node version
// ---------------------------------------------------------------------------

type nodeChoice struct {
	label, value, detail string
}

var nodeChoices = []nodeChoice{
	{"LTS", "lts", "current long-term support release (recommended)"},
	{"Latest", "latest", "newest upstream release"},
	{"Custom", "", "pin an exact version"},
}

type nodeStepModel struct {
	cursor int
	input  textinput.Model
}

func newNodeStepModel(defaultVersion string) nodeStepModel {
	ti := textinput.New()
	ti.Placeholder = "22.1.0"
	ti.CharLimit = 32
	ti.Width = 20

	m := nodeStepModel{input: ti}
	switch defaultVersion {
	case "lts", "":
		m.cursor = 0
	case "latest":
		m.cursor = 1
	default:
		m.cursor = 2
		m.input.SetValue(defaultVersion)
		m.input.Focus()
	}
	return m
}

func (m nodeStepModel) custom() bool { return m.cursor == len(nodeChoices)-1 }

func (m nodeStepModel) value() string {
	if m.custom() {
		return strings.TrimSpace(m.input.Value())
	}
	return nodeChoices[m.cursor].value
}

func (m nodeStepModel) Init() tea.Cmd { return nil }

func (m nodeStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m.syncFocus()
		case key.Matches(keyMsg, keys.Down):
			if m.cursor < len(nodeChoices)-1 {
				m.cursor++
			}
			return m.syncFocus()
		case key.Matches(keyMsg, keys.Enter):
			if m.custom() && strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			return m, func() tea.Msg { return wizardNextMsg{} }
		}
	}

	if m.custom() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m nodeStepModel) syncFocus() (tea.Model, tea.Cmd) {
	if m.custom() {
		return m, m.input.Focus()
	}
	m.input.Blur()
	return m, nil
}

func (m nodeStepModel) View() string {
	var b strings.Builder
	b.WriteString("Node.js version:\n\n")
	for i, choice := range nodeChoices {
		radio := "( )"
		if i == m.cursor {
			radio = "(•)"
		}

		prefix := "  "
		label := normalItemStyle.Render(choice.label)
		if i == m.cursor {
			prefix = "> "
			label = selectedItemStyle.Render(choice.label)
		}
		fmt.Fprintf(&b, "%s%s %-8s %s\n", prefix, radio, label, mutedStyle.Render(choice.detail))
	}
	if m.custom() {
		b.WriteString("\n      " + m.input.View() + "\n")
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Step 4: Python version (conda)
// ---------------------------------------------------------------------------

type pythonStepModel struct {
	input textinput.Model
}

func newPythonStepModel(defaultVersion string) pythonStepModel {
	ti := textinput.New()
	ti.Placeholder = "3.11"
	ti.CharLimit = 16
	ti.Width = 20
	ti.SetValue(defaultVersion)
	ti.Focus()
	return pythonStepModel{input: ti}
}

func (m pythonStepModel) Init() tea.Cmd {
	return m.input.Cursor.BlinkCmd()
}

func (m pythonStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, keys.Enter) {
			return m, func() tea.Msg { return wizardNextMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m pythonStepModel) View() string {
	return "Python version for the conda base environment:\n\n" + m.input.View() + "\n\n" +
		mutedStyle.Render("Leave as-is unless a project needs something specific.")
}

// ---------------------------------------------------------------------------
// Step 5: Registry preset
// ---------------------------------------------------------------------------

type mirrorChoice struct {
	label, value, detail string
}

var mirrorChoices = []mirrorChoice{
	{"China mirrors", "china", "npmmirror and TUNA endpoints, fastest inside mainland China"},
	{"Upstream defaults", "default", "registry.npmjs.org and pypi.org, no overrides"},
}

func mirrorChoiceByValue(value string) mirrorChoice {
	for _, c := range mirrorChoices {
		if c.value == value {
			return c
		}
	}
	return mirrorChoices[0]
}

type mirrorStepModel struct {
	cursor int
}

func newMirrorStepModel() mirrorStepModel {
	return mirrorStepModel{}
}

func (m mirrorStepModel) Init() tea.Cmd { return nil }

func (m mirrorStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(mirrorChoices)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.Enter):
		return m, func() tea.Msg { return wizardNextMsg{} }
	}
	return m, nil
}

func (m mirrorStepModel) View() string {
	var b strings.Builder
	b.WriteString("Package registries:\n\n")
	for i, choice := range mirrorChoices {
		radio := "( )"
		if i == m.cursor {
			radio = "(•)"
		}

		prefix := "  "
		label := normalItemStyle.Render(choice.label)
		if i == m.cursor {
			prefix = "> "
			label = selectedItemStyle.Render(choice.label)
		}
		fmt.Fprintf(&b, "%s%s %-18s %s\n", prefix, radio, label, mutedStyle.Render(choice.detail))
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Step 6: Review and confirm
// ---------------------------------------------------------------------------

type reviewStepModel struct {
	summary  string
	focusYes bool
}

func newReviewStepModel(markdown string, width int) reviewStepModel {
	return reviewStepModel{
		summary:  renderMarkdown(markdown, width),
		focusYes: true,
	}
}

// renderMarkdown renders the summary through glamour, falling back to the
// raw markdown when the terminal profile cannot be set up.
func renderMarkdown(markdown string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width-4, 76)),
	)
	if err != nil {
		return markdown
	}
	rendered, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

func (m reviewStepModel) Init() tea.Cmd { return nil }

func (m reviewStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, reviewYesKey):
		return m, func() tea.Msg { return wizardDoneMsg{} }

	case key.Matches(keyMsg, reviewNoKey):
		return m, func() tea.Msg { return reviewDeclinedMsg{} }

	case key.Matches(keyMsg, keys.Enter):
		if m.focusYes {
			return m, func() tea.Msg { return wizardDoneMsg{} }
		}
		return m, func() tea.Msg { return reviewDeclinedMsg{} }

	case key.Matches(keyMsg, reviewLeft), key.Matches(keyMsg, reviewRight),
		key.Matches(keyMsg, reviewTab), key.Matches(keyMsg, reviewShiftTab):
		m.focusYes = !m.focusYes
	}
	return m, nil
}

func (m reviewStepModel) View() string {
	var startBtn, abortBtn string
	if m.focusYes {
		startBtn = dialogActiveButtonStyle.Render("Start")
		abortBtn = dialogButtonStyle.Render("Abort")
	} else {
		startBtn = dialogButtonStyle.Render("Start")
		abortBtn = dialogActiveButtonStyle.Render("Abort")
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, startBtn, "  ", abortBtn)

	return m.summary + "\n\n" + buttons + "\n\n" +
		mutedStyle.Render("enter confirms the highlighted button, esc goes back")
}

// Key bindings for the review step (not part of the global keyMap).
var (
	reviewYesKey = key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "start"),
	)
	reviewNoKey = key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "abort"),
	)
	reviewLeft = key.NewBinding(
		key.WithKeys("left", "h"),
	)
	reviewRight = key.NewBinding(
		key.WithKeys("right", "l"),
	)
	reviewTab = key.NewBinding(
		key.WithKeys("tab"),
	)
	reviewShiftTab = key.NewBinding(
		key.WithKeys("shift+tab"),
	)
)

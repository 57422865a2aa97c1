package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// wizardNextMsg is emitted by a step model when it is ready to advance.
type wizardNextMsg struct{}

// wizardDoneMsg is emitted by wizardModel when the last step completes.
type wizardDoneMsg struct{}

// wizardBackMsg is emitted by wizardModel when esc is pressed on step 0.
type wizardBackMsg struct{}

// wizardStep defines one step in a wizard flow.
type wizardStep struct {
	name    string    // Displayed in the step indicator.
	content tea.Model // The step's own Bubble Tea model.
}

// wizardModel is the multi-step backbone of the setup flow: it keeps the
// ordered steps, draws the breadcrumb indicator, and routes messages to the
// active step. Step content models emit wizardNextMsg to advance; the wizard
// emits wizardDoneMsg when the last step completes and wizardBackMsg when
// esc is pressed on the first step.
type wizardModel struct {
	width, height int

	title     string
	steps     []wizardStep
	activeIdx int
}

// newWizardModel creates a wizard with the given title and steps.
func newWizardModel(title string, steps []wizardStep) wizardModel {
	return wizardModel{
		title: title,
		steps: steps,
	}
}

// setSize updates the content area dimensions.
func (m wizardModel) setSize(width, height int) wizardModel {
	m.width = width
	m.height = height
	return m
}

// activeStep returns the currently active step, or nil if out of bounds.
func (m wizardModel) activeStep() *wizardStep {
	if m.activeIdx >= 0 && m.activeIdx < len(m.steps) {
		return &m.steps[m.activeIdx]
	}
	return nil
}

// update handles wizard navigation. It intercepts wizardNextMsg to advance
// steps, and esc to go back. All other messages are forwarded to the active
// step's content model.
func (m wizardModel) update(msg tea.Msg) (wizardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case wizardNextMsg:
		if m.activeIdx >= len(m.steps)-1 {
			// Last step completed.
			return m, func() tea.Msg { return wizardDoneMsg{} }
		}
		m.activeIdx++
		step := m.steps[m.activeIdx].content
		return m, step.Init()

	case tea.KeyMsg:
		if key.Matches(msg, keys.Back) {
			if m.activeIdx > 0 {
				m.activeIdx--
				return m, nil
			}
			// Step 0: emit back to close the wizard.
			return m, func() tea.Msg { return wizardBackMsg{} }
		}
	}

	// Forward to the active step's content model.
	if step := m.activeStep(); step != nil {
		var cmd tea.Cmd
		step.content, cmd = step.content.Update(msg)
		return m, cmd
	}

	return m, nil
}

// view renders the step indicator + active step content.
func (m wizardModel) view() string {
	if len(m.steps) == 0 {
		return ""
	}

	indicator := m.renderStepIndicator()
	stepView := m.steps[m.activeIdx].content.View()

	var content string
	if indicator != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, indicator, "", stepView)
	} else {
		content = stepView
	}

	rendered := wizardContentStyle.Render(content)
	if m.width > 0 {
		// Clip instead of letting the terminal wrap styled lines.
		lines := strings.Split(rendered, "\n")
		for i, line := range lines {
			lines[i] = ansi.Truncate(line, m.width, "")
		}
		rendered = strings.Join(lines, "\n")
	}
	return rendered
}

// renderStepIndicator draws the breadcrumb strip:
//
//	Project → Tools → Review
//	          ─────
func (m wizardModel) renderStepIndicator() string {
	if len(m.steps) <= 1 {
		// Single-step wizard: no indicator needed.
		return ""
	}

	var parts []string
	var activeLabel string

	for i, step := range m.steps {
		var label string
		if i == m.activeIdx {
			label = wizardStepActiveStyle.Render(step.name)
			activeLabel = step.name
		} else {
			label = wizardStepInactiveStyle.Render(step.name)
		}
		parts = append(parts, label)
	}

	sep := wizardStepSeparatorStyle.Render(" → ")
	breadcrumb := strings.Join(parts, sep)

	// Underline below the active step label.
	underline := wizardStepActiveStyle.Render(strings.Repeat("─", len(activeLabel)))

	// Calculate offset: the visible width of all labels + separators before
	// the active step. This positions the underline below the active label.
	offset := 0
	sepWidth := lipgloss.Width(sep)
	for i := 0; i < m.activeIdx; i++ {
		offset += len(m.steps[i].name) + sepWidth
	}

	padding := strings.Repeat(" ", offset)

	return breadcrumb + "\n" + padding + underline
}

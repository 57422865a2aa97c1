package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keybindings for the setup wizard.
type keyMap struct {
	Quit      key.Binding
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k/up", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/down", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "continue"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space/x", "toggle"),
	),
	ToggleAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "all/none"),
	),
}

// ---------------------------------------------------------------------------
// Per-step help keymaps for the help.Model component.
// Each implements help.KeyMap (ShortHelp + FullHelp).
// ---------------------------------------------------------------------------

// wizardHelpKeyMap adapts the help line to the active wizard step.
type wizardHelpKeyMap struct {
	step int
}

func (k wizardHelpKeyMap) ShortHelp() []key.Binding {
	switch k.step {
	case stepTools:
		return []key.Binding{
			keys.Up, keys.Down, keys.Toggle, keys.ToggleAll,
			keys.Enter, keys.Back, keys.Quit,
		}
	case stepNode, stepMirror:
		return []key.Binding{
			keys.Up, keys.Down, keys.Enter, keys.Back, keys.Quit,
		}
	case stepReview:
		return []key.Binding{
			reviewYesKey, reviewNoKey, keys.Enter, keys.Back,
		}
	default:
		// Text input steps: q must stay typable.
		return []key.Binding{keys.Enter, keys.Back}
	}
}

func (k wizardHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

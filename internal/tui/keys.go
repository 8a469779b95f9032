package tui

import "github.com/charmbracelet/bubbles/v2/key"

// KeyMap defines the global key bindings
type KeyMap struct {
	Install     key.Binding
	Uninstall   key.Binding
	CheckAll    key.Binding
	UncheckAll  key.Binding
	Invert      key.Binding
	ToggleInput key.Binding
	ClearLog    key.Binding
	SwitchFocus key.Binding
	Help        key.Binding
	Close       key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default global key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Install: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "install checked packages"),
		),
		Uninstall: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "uninstall checked packages"),
		),
		CheckAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "check all"),
		),
		UncheckAll: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "uncheck all"),
		),
		Invert: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "invert checks"),
		),
		ToggleInput: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle require user input"),
		),
		ClearLog: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		SwitchFocus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch checklist/log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit after the current job"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Install, k.Uninstall, k.CheckAll, k.UncheckAll, k.SwitchFocus, k.Help, k.Quit}
}

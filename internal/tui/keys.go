// ABOUTME: Keyboard bindings for the chat interface
// ABOUTME: One KeyMap shared by the sidebar and the input pane

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit         key.Binding
	NewChat        key.Binding
	SwitchFocus    key.Binding
	Up             key.Binding
	Down           key.Binding
	Select         key.Binding
	ToggleMark     key.Binding
	DeleteMarked   key.Binding
	StopStream     key.Binding
	Export         key.Binding
	ToggleThoughts key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		SwitchFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		ToggleMark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "mark"),
		),
		DeleteMarked: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete marked"),
		),
		StopStream: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop response"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export"),
		),
		ToggleThoughts: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "show/hide reasoning"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

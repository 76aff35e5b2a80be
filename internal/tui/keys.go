package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Draw   key.Binding
	Play   key.Binding
	Undo   key.Binding
	Pause  key.Binding
	End    key.Binding
	Reset  key.Binding
	Help   key.Binding
	Quit   key.Binding
	Scroll key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Draw: key.NewBinding(
			key.WithKeys(" ", "d"),
			key.WithHelp("space", "draw"),
		),
		Play: key.NewBinding(
			key.WithKeys("1", "2", "3", "4"),
			key.WithHelp("1-4", "play lane"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "backspace"),
			key.WithHelp("u", "undo"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		End: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "end round"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new round"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "pgup", "pgdown"),
			key.WithHelp("↑/↓", "scroll log"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Draw, k.Play, k.Undo, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Draw, k.Play, k.Undo},
		{k.Pause, k.End, k.Reset},
		{k.Scroll, k.Help, k.Quit},
	}
}

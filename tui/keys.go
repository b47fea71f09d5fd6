package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	PlayPause key.Binding
	Prev      key.Binding
	Next      key.Binding
	PrevFast  key.Binding
	NextFast  key.Binding
	First     key.Binding
	Last      key.Binding
	Good      key.Binding
	Bad       key.Binding
	Label     key.Binding
	Unset     key.Binding
	Camera    key.Binding
	Clear     key.Binding
	Confirm   key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open demo"),
		),
		PlayPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "prev frame"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next frame"),
		),
		PrevFast: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("shift+←", "back 10"),
		),
		NextFast: key.NewBinding(
			key.WithKeys("shift+right", "L"),
			key.WithHelp("shift+→", "forward 10"),
		),
		First: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first frame"),
		),
		Last: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "last frame"),
		),
		Good: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "mode good"),
		),
		Bad: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "mode bad"),
		),
		Label: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "label frame"),
		),
		Unset: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unset frame"),
		),
		Camera: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "next camera"),
		),
		Clear: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear all"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Back: key.NewBinding(
			key.WithKeys("d", "esc"),
			key.WithHelp("d", "demos"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// labelingHelp is the help.KeyMap of the labeling view.
type labelingHelp struct{ keyMap }

func (k labelingHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Prev, k.Next, k.Good, k.Bad, k.Label, k.Help, k.Quit}
}

func (k labelingHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Prev, k.Next, k.PrevFast, k.NextFast, k.First, k.Last},
		{k.Good, k.Bad, k.Label, k.Unset, k.Clear},
		{k.Camera, k.Back, k.Help, k.Quit},
	}
}

// pickerHelp is the help.KeyMap of the demo picker.
type pickerHelp struct{ keyMap }

func (k pickerHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Quit}
}

func (k pickerHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding

	// Actions
	Quit       key.Binding
	Help       key.Binding
	Search     key.Binding
	Watchlist  key.Binding
	Like       key.Binding
	LogWatch   key.Binding
	AddToList  key.Binding
	ListView   key.Binding
	SwitchList key.Binding
	Remove     key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Filter     key.Binding
	Refresh    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Watchlist: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "watchlist"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like log"),
		),
		LogWatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "log watch"),
		),
		AddToList: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add to list"),
		),
		ListView: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "list view"),
		),
		SwitchList: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "switch list"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "move down"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Package-level key map instance
var Keys = DefaultKeyMap()

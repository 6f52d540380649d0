package components

import "github.com/charmbracelet/bubbles/key"

// ListKeyMap defines key bindings for list panel navigation
type ListKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Home   key.Binding
	End    key.Binding
	Escape key.Binding
	Accept key.Binding
}

// DefaultListKeyMap returns the default list panel key bindings
func DefaultListKeyMap() ListKeyMap {
	return ListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "go to bottom"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "accept filter"),
		),
	}
}

// SuggestKeyMap defines key bindings for the suggestion box
type SuggestKeyMap struct {
	Escape key.Binding
	Enter  key.Binding
	Up     key.Binding
	Down   key.Binding
}

// DefaultSuggestKeyMap returns the default suggestion box key bindings
func DefaultSuggestKeyMap() SuggestKeyMap {
	return SuggestKeyMap{
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑/C-p", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓/C-n", "next"),
		),
	}
}

// FormKeyMap defines key bindings for form modals
type FormKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Check  key.Binding
	Submit key.Binding
	Cancel key.Binding
}

// DefaultFormKeyMap returns the default form key bindings
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-tab", "previous field"),
		),
		Check: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "toggle rewatch"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Package-level key map instances
var (
	ListKeys    = DefaultListKeyMap()
	SuggestKeys = DefaultSuggestKeyMap()
	FormKeys    = DefaultFormKeyMap()
)

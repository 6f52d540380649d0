package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cinelog/internal/suggest"
	"github.com/mmcdole/cinelog/internal/toggle"
)

// ChangedMsg signals that a controller changed state off the UI goroutine.
// It carries no state: the model re-reads every controller it renders.
type ChangedMsg struct{}

// ChangeObserver adapts controller OnChange callbacks to a channel for Bubble Tea.
type ChangeObserver struct {
	ch chan ChangedMsg
}

// NewChangeObserver creates a new channel-based observer.
func NewChangeObserver() *ChangeObserver {
	return &ChangeObserver{ch: make(chan ChangedMsg, 16)}
}

// OnSuggest is a suggest.Options.OnChange callback
func (o *ChangeObserver) OnSuggest(suggest.State) {
	o.signal()
}

// OnToggle is a toggle.Options.OnChange callback
func (o *ChangeObserver) OnToggle(toggle.State) {
	o.signal()
}

// signal sends to the channel (non-blocking if full). A full buffer already
// holds a pending signal, and that one re-reads the newer state.
func (o *ChangeObserver) signal() {
	select {
	case o.ch <- ChangedMsg{}:
	default:
	}
}

// Wait returns a command that blocks for the next change
func (o *ChangeObserver) Wait() tea.Cmd {
	return func() tea.Msg {
		return <-o.ch
	}
}

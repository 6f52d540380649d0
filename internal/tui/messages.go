package tui

import (
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/stats"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + domain.UserMessage(e.Err)
	}
	return domain.UserMessage(e.Err)
}

// StatusMsg sets the status line
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status line if it still shows status ID
type ClearStatusMsg struct {
	ID int
}

// TickMsg drives the loading spinner
type TickMsg struct{}

// DetailLoadedMsg carries the detail for the open title
type DetailLoadedMsg struct {
	Ref    domain.ContentRef
	Detail *domain.ContentDetail
	Err    error
}

// LogsLoadedMsg carries the user's logs for the open title
type LogsLoadedMsg struct {
	Ref  domain.ContentRef
	Logs []domain.LogEntry
	Err  error
}

// LogCreatedMsg reports the result of the log form submit
type LogCreatedMsg struct {
	Ref   domain.ContentRef
	Entry *domain.LogEntry
	Err   error
}

// ToggleSettledMsg reports a finished toggle action or init
type ToggleSettledMsg struct {
	Label string // "Watchlist", "Like"
	On    bool   // state after the action
	Init  bool
	Err   error
}

// ListUpdatedMsg carries the list after a change
type ListUpdatedMsg struct {
	List *domain.DraftList
	Note string // status text, empty for none
	Err  error
}

// StatsLoadedMsg carries recomputed list statistics
type StatsLoadedMsg struct {
	Gen   int
	Stats domain.ListStats
	Items []stats.Item
	Err   error
}

package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cinelog/internal/catalog"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/lists"
	"github.com/mmcdole/cinelog/internal/logbook"
	"github.com/mmcdole/cinelog/internal/stats"
	"github.com/mmcdole/cinelog/internal/toggle"
)

// Command factories for async operations

const requestTimeout = 30 * time.Second

// LoadDetailCmd loads the detail of a title, from cache when possible
func LoadDetailCmd(svc *catalog.Service, ref domain.ContentRef, refresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var (
			detail *domain.ContentDetail
			err    error
		)
		if refresh {
			detail, err = svc.Refresh(ctx, ref)
		} else {
			detail, err = svc.Detail(ctx, ref)
		}
		return DetailLoadedMsg{Ref: ref, Detail: detail, Err: err}
	}
}

// LoadLogsCmd loads the user's logs for a title
func LoadLogsCmd(svc *logbook.Service, ref domain.ContentRef) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		logs, err := svc.ForContent(ctx, ref)
		return LogsLoadedMsg{Ref: ref, Logs: logs, Err: err}
	}
}

// CreateLogCmd posts a validated draft
func CreateLogCmd(svc *logbook.Service, ref domain.ContentRef, draft domain.LogDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		entry, err := svc.Create(ctx, draft)
		return LogCreatedMsg{Ref: ref, Entry: entry, Err: err}
	}
}

// InitToggleCmd loads the personalized state of a toggle
func InitToggleCmd(ctrl *toggle.Controller, label string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := ctrl.Init(ctx)
		return ToggleSettledMsg{Label: label, On: ctrl.State().Active, Init: true, Err: err}
	}
}

// ToggleCmd flips a toggle. The optimistic state is already visible through
// the change observer by the time the request goes out.
func ToggleCmd(ctrl *toggle.Controller, label string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := ctrl.Toggle(ctx)
		return ToggleSettledMsg{Label: label, On: ctrl.State().Active, Err: err}
	}
}

// LoadListCmd opens a draft list, creating it when missing
func LoadListCmd(svc *lists.Service, name string) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.GetOrCreate(name)
		return ListUpdatedMsg{List: list, Err: err}
	}
}

// AddToListCmd appends a title to a draft list
func AddToListCmd(svc *lists.Service, name string, entry domain.ListEntry) tea.Cmd {
	return func() tea.Msg {
		list, added, err := svc.Add(name, entry)
		if err != nil {
			return ListUpdatedMsg{Err: err}
		}
		note := fmt.Sprintf("Added %s to %s", entry.Title, name)
		if !added {
			note = fmt.Sprintf("%s is already on %s", entry.Title, name)
		}
		return ListUpdatedMsg{List: list, Note: note}
	}
}

// RemoveFromListCmd drops a title from a draft list
func RemoveFromListCmd(svc *lists.Service, name string, entry domain.ListEntry) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.Remove(name, entry.Ref)
		if err != nil {
			return ListUpdatedMsg{Err: err}
		}
		return ListUpdatedMsg{List: list, Note: "Removed " + entry.Title}
	}
}

// MoveInListCmd reorders a draft list
func MoveInListCmd(svc *lists.Service, name string, from, to int) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.Move(name, from, to)
		return ListUpdatedMsg{List: list, Err: err}
	}
}

// LoadStatsCmd recomputes statistics for the refs of a list
func LoadStatsCmd(loader *stats.Loader, refs []domain.ContentRef, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*requestTimeout)
		defer cancel()

		s, items, err := loader.Stats(ctx, refs)
		return StatsLoadedMsg{Gen: gen, Stats: s, Items: items, Err: err}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status id after a delay
func ClearStatusCmd(id int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}

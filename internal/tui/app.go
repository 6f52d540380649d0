package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cinelog/internal/catalog"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/lists"
	"github.com/mmcdole/cinelog/internal/logbook"
	"github.com/mmcdole/cinelog/internal/stats"
	"github.com/mmcdole/cinelog/internal/suggest"
	"github.com/mmcdole/cinelog/internal/toggle"
	"github.com/mmcdole/cinelog/internal/tui/components"
)

// ViewMode is the main pane being shown
type ViewMode int

const (
	ViewContent ViewMode = iota
	ViewList
)

// FormKind is what the open form modal submits
type FormKind int

const (
	FormNone FormKind = iota
	FormLog
	FormSwitchList
)

// searchTop is the screen row the search box starts on (below the header)
const searchTop = 1

// Deps are the services the model drives
type Deps struct {
	API     domain.API
	Catalog *catalog.Service
	Logbook *logbook.Service
	Lists   *lists.Service
	Stats   *stats.Loader
	Logger  *slog.Logger
}

// Options tune the model
type Options struct {
	Search        suggest.Options
	Units         stats.Units
	StatusTimeout time.Duration
	DefaultList   string
}

// contentView is the title currently open. It is shared between model
// copies, so it is only touched from Update.
type contentView struct {
	ref           domain.ContentRef
	seed          domain.ListEntry
	detail        *domain.ContentDetail
	detailErr     error
	detailLoading bool
	logs          []domain.LogEntry
	logsErr       error
	logsLoading   bool
	watchlist     *toggle.Controller
	likes         map[string]*toggle.Controller
	cursor        int
}

func (c *contentView) close() {
	c.watchlist.Close()
	for _, l := range c.likes {
		l.Close()
	}
}

// entry returns the list entry for the open title, preferring loaded details
func (c *contentView) entry() domain.ListEntry {
	e := c.seed
	e.Ref = c.ref
	e.AddedAt = time.Time{}
	if c.detail != nil {
		e.Title = c.detail.Title
		e.Year = c.detail.Year
		e.PosterPath = c.detail.PosterPath
	}
	return e
}

func (c *contentView) title() string {
	if c.detail != nil && c.detail.Title != "" {
		return c.detail.Title
	}
	if c.seed.Title != "" {
		return c.seed.Title
	}
	return c.ref.Key()
}

func (c *contentView) selectedLog() (domain.LogEntry, *toggle.Controller, bool) {
	if c.cursor < 0 || c.cursor >= len(c.logs) {
		return domain.LogEntry{}, nil, false
	}
	l := c.logs[c.cursor]
	return l, c.likes[l.LogID], true
}

// Model is the main Bubble Tea model for the application
type Model struct {
	deps    Deps
	opts    Options
	session domain.Session
	logger  *slog.Logger

	observer *ChangeObserver
	Suggest  *suggest.Controller

	// UI components
	SearchBox components.SuggestBox
	Form      components.FormModal
	ListPanel components.ListPanel

	Mode     ViewMode
	ShowHelp bool
	formKind FormKind

	content  *contentView
	listName string
	statsGen int

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// Status line
	StatusMsg    string
	StatusIsErr  bool
	statusID     int
	SpinnerFrame int
}

// NewModel creates a new application model
func NewModel(deps Deps, opts Options) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = 3 * time.Second
	}
	if opts.DefaultList == "" {
		opts.DefaultList = "watch-next"
	}

	observer := NewChangeObserver()
	searchOpts := opts.Search
	searchOpts.OnChange = observer.OnSuggest
	searchOpts.Logger = deps.Logger

	box := components.NewSuggestBox()
	box.Focus()

	return Model{
		deps:      deps,
		opts:      opts,
		session:   deps.API.Session(),
		logger:    deps.Logger,
		observer:  observer,
		Suggest:   suggest.New(deps.API, searchOpts),
		SearchBox: box,
		Form:      components.NewFormModal(),
		ListPanel: components.NewListPanel(opts.Units),
		Mode:      ViewContent,
		listName:  opts.DefaultList,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.observer.Wait(),
		LoadListCmd(m.deps.Lists, m.listName),
		textinput.Blink,
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.SearchBox.SetLayout(msg.Width, searchTop)
		m.ListPanel.SetSize(msg.Width-4, msg.Height-searchTop-m.SearchBox.Height()-3)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case ChangedMsg:
		m.SearchBox.SetState(m.Suggest.State())
		return m, m.observer.Wait()

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case DetailLoadedMsg:
		if m.content == nil || m.content.ref != msg.Ref {
			return m, nil
		}
		m.content.detailLoading = false
		if msg.Err != nil {
			m.content.detailErr = msg.Err
			return m, m.setStatus(ErrMsg{Err: msg.Err, Context: "loading details"}.Error(), true)
		}
		m.content.detail = msg.Detail
		m.content.detailErr = nil
		return m, nil

	case LogsLoadedMsg:
		return m.handleLogsLoaded(msg)

	case LogCreatedMsg:
		if msg.Err != nil {
			m.Form.SetError(msg.Err)
			return m, nil
		}
		m.Form.Hide()
		m.formKind = FormNone
		cmds := []tea.Cmd{m.setStatus("Logged "+m.titleFor(msg.Ref), false)}
		if m.content != nil && m.content.ref == msg.Ref {
			m.content.logsLoading = true
			cmds = append(cmds, LoadLogsCmd(m.deps.Logbook, msg.Ref))
		}
		if list := m.ListPanel.List(); list != nil && list.IndexOf(msg.Ref) >= 0 {
			cmds = append(cmds, m.recomputeStats())
		}
		return m, tea.Batch(cmds...)

	case ToggleSettledMsg:
		return m, m.handleToggleSettled(msg)

	case ListUpdatedMsg:
		if msg.Err != nil {
			return m, m.setStatus(ErrMsg{Err: msg.Err, Context: "list"}.Error(), true)
		}
		m.listName = msg.List.Name
		m.ListPanel.SetList(msg.List)
		cmds := []tea.Cmd{m.recomputeStats()}
		if msg.Note != "" {
			cmds = append(cmds, m.setStatus(msg.Note, false))
		}
		return m, tea.Batch(cmds...)

	case StatsLoadedMsg:
		if msg.Gen != m.statsGen {
			return m, nil
		}
		if msg.Err != nil {
			m.ListPanel.SetLoading(false)
			return m, m.setStatus(ErrMsg{Err: msg.Err, Context: "stats"}.Error(), true)
		}
		m.ListPanel.SetStats(msg.Stats, msg.Items)
		return m, nil

	case ErrMsg:
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		if msg.ID == m.statusID {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

// setStatus shows a status line. Success clears itself; errors stay until the next action.
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusID++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	if isErr {
		return nil
	}
	return ClearStatusCmd(m.statusID, m.opts.StatusTimeout)
}

func (m *Model) clearErrorStatus() {
	if m.StatusIsErr {
		m.statusID++
		m.StatusMsg = ""
		m.StatusIsErr = false
	}
}

func (m Model) titleFor(ref domain.ContentRef) string {
	if m.content != nil && m.content.ref == ref {
		return m.content.title()
	}
	return ref.Key()
}

func (m *Model) recomputeStats() tea.Cmd {
	list := m.ListPanel.List()
	if list == nil {
		return nil
	}
	m.statsGen++
	m.ListPanel.SetLoading(true)
	return LoadStatsCmd(m.deps.Stats, list.Refs(), m.statsGen)
}

func (m Model) handleLogsLoaded(msg LogsLoadedMsg) (tea.Model, tea.Cmd) {
	cv := m.content
	if cv == nil || cv.ref != msg.Ref {
		return m, nil
	}
	cv.logsLoading = false
	if msg.Err != nil {
		cv.logsErr = msg.Err
		if errors.Is(msg.Err, domain.ErrAnonymous) {
			return m, nil
		}
		return m, m.setStatus(ErrMsg{Err: msg.Err, Context: "loading logs"}.Error(), true)
	}

	for _, l := range cv.likes {
		l.Close()
	}
	cv.logs = msg.Logs
	cv.logsErr = nil
	cv.likes = make(map[string]*toggle.Controller, len(msg.Logs))
	cv.cursor = min(cv.cursor, max(0, len(msg.Logs)-1))

	var cmds []tea.Cmd
	for _, l := range msg.Logs {
		ctrl := toggle.NewLike(m.deps.API, m.session, l, toggle.Options{
			OnChange: m.observer.OnToggle,
			Logger:   m.logger,
		})
		cv.likes[l.LogID] = ctrl
		cmds = append(cmds, InitToggleCmd(ctrl, "Like"))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleToggleSettled(msg ToggleSettledMsg) tea.Cmd {
	switch {
	case msg.Init:
		// Init failures show inline next to the control
		return nil
	case errors.Is(msg.Err, domain.ErrBusy), errors.Is(msg.Err, toggle.ErrClosed):
		return nil
	case msg.Err != nil:
		return m.setStatus(msg.Label+": "+domain.UserMessage(msg.Err), true)
	}

	var text string
	switch {
	case msg.Label == "Watchlist" && msg.On:
		text = "Added to watchlist"
	case msg.Label == "Watchlist":
		text = "Removed from watchlist"
	case msg.On:
		text = "Liked"
	default:
		text = "Unliked"
	}
	return m.setStatus(text, false)
}

// openContent shows a title, replacing the previous one. Controllers of the
// previous title are closed so their late responses are dropped.
func (m Model) openContent(entry domain.ListEntry) (Model, tea.Cmd) {
	if m.content != nil {
		m.content.close()
	}

	cv := &contentView{
		ref:           entry.Ref,
		seed:          entry,
		detailLoading: true,
		logsLoading:   true,
		likes:         map[string]*toggle.Controller{},
	}
	cv.watchlist = toggle.NewWatchlist(m.deps.API, m.session, entry.Ref, toggle.Options{
		OnChange: m.observer.OnToggle,
		Logger:   m.logger,
	})
	m.content = cv
	m.Mode = ViewContent

	return m, tea.Batch(
		LoadDetailCmd(m.deps.Catalog, entry.Ref, false),
		LoadLogsCmd(m.deps.Logbook, entry.Ref),
		InitToggleCmd(cv.watchlist, "Watchlist"),
	)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || m.Form.IsVisible() {
		return m, nil
	}

	if m.SearchBox.Contains(msg.Y) {
		if m.SearchBox.Focused() {
			return m, nil
		}
		m.Suggest.Reopen()
		m.SearchBox.SetState(m.Suggest.State())
		return m, m.SearchBox.Focus()
	}

	// Click outside the result box
	if m.Suggest.DismissListenerActive() {
		m.Suggest.Dismiss()
		m.SearchBox.SetState(m.Suggest.State())
	}
	m.SearchBox.Blur()
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	m.clearErrorStatus()

	if m.Form.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.Form, cmd, submitted = m.Form.Update(msg)
		if submitted {
			return m.handleFormSubmit()
		}
		if !m.Form.IsVisible() {
			m.formKind = FormNone
		}
		return m, cmd
	}

	if m.SearchBox.Focused() {
		return m.handleSearchKey(msg)
	}

	if m.Mode == ViewList && m.ListPanel.Filtering() {
		var cmd tea.Cmd
		m.ListPanel, cmd = m.ListPanel.Update(msg)
		return m, cmd
	}

	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m.quit()

	case key.Matches(msg, Keys.Help):
		m.ShowHelp = true
		return m, nil

	case key.Matches(msg, Keys.Search):
		if m.Suggest.State().Term != "" {
			m.Suggest.Reopen()
			m.SearchBox.SetState(m.Suggest.State())
		}
		return m, m.SearchBox.Focus()

	case key.Matches(msg, Keys.ListView):
		if m.Mode == ViewList {
			m.Mode = ViewContent
		} else {
			m.Mode = ViewList
		}
		return m, nil

	case key.Matches(msg, Keys.SwitchList):
		m.formKind = FormSwitchList
		return m, m.Form.Show("Switch list", components.FormField{
			Key:         "name",
			Label:       "Name",
			Placeholder: m.listName,
			CharLimit:   100,
		})
	}

	if m.Mode == ViewList {
		return m.handleListKey(msg)
	}
	return m.handleContentKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var action components.SuggestAction
	m.SearchBox, cmd, action = m.SearchBox.Update(msg)

	switch action {
	case components.SuggestTermChanged:
		m.Suggest.OnTermChange(m.SearchBox.Term())
	case components.SuggestClosed:
		m.Suggest.Dismiss()
	case components.SuggestSelected:
		s, ok := m.Suggest.Select(m.SearchBox.Cursor())
		if ok {
			m.SearchBox.Reset()
			m.SearchBox.Blur()
			m.SearchBox.SetState(m.Suggest.State())
			next, openCmd := m.openContent(domain.EntryFromSuggestion(s))
			return next, tea.Batch(cmd, openCmd)
		}
	}
	m.SearchBox.SetState(m.Suggest.State())
	return m, cmd
}

func (m Model) handleContentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cv := m.content
	if cv == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Up):
		if cv.cursor > 0 {
			cv.cursor--
		}

	case key.Matches(msg, Keys.Down):
		if cv.cursor < len(cv.logs)-1 {
			cv.cursor++
		}

	case key.Matches(msg, Keys.Watchlist):
		return m, ToggleCmd(cv.watchlist, "Watchlist")

	case key.Matches(msg, Keys.Like):
		if _, ctrl, ok := cv.selectedLog(); ok && ctrl != nil {
			return m, ToggleCmd(ctrl, "Like")
		}

	case key.Matches(msg, Keys.LogWatch):
		if m.session.Anonymous() {
			return m, m.setStatus(domain.UserMessage(domain.ErrAnonymous), true)
		}
		m.formKind = FormLog
		return m, m.Form.ShowLogForm("Log "+cv.title(), cv.ref.Type)

	case key.Matches(msg, Keys.AddToList):
		return m, AddToListCmd(m.deps.Lists, m.listName, cv.entry())

	case key.Matches(msg, Keys.Refresh):
		cv.detailLoading = true
		cv.logsLoading = true
		return m, tea.Batch(
			LoadDetailCmd(m.deps.Catalog, cv.ref, true),
			LoadLogsCmd(m.deps.Logbook, cv.ref),
		)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Filter):
		return m, m.ListPanel.StartFilter()

	case key.Matches(msg, Keys.Enter):
		if e, ok := m.ListPanel.Selected(); ok {
			return m.openContent(e)
		}
		return m, nil

	case key.Matches(msg, Keys.Remove):
		if e, ok := m.ListPanel.Selected(); ok {
			return m, RemoveFromListCmd(m.deps.Lists, m.listName, e)
		}
		return m, nil

	case key.Matches(msg, Keys.MoveUp), key.Matches(msg, Keys.MoveDown):
		if m.ListPanel.Filtered() {
			return m, m.setStatus("Clear the filter to reorder", true)
		}
		from := m.ListPanel.SelectedIndex()
		to := from - 1
		if key.Matches(msg, Keys.MoveDown) {
			to = from + 1
		}
		list := m.ListPanel.List()
		if from < 0 || list == nil || to < 0 || to >= len(list.Entries) {
			return m, nil
		}
		return m, MoveInListCmd(m.deps.Lists, m.listName, from, to)

	case key.Matches(msg, Keys.Back) && !m.ListPanel.Filtered():
		m.Mode = ViewContent
		return m, nil
	}

	var cmd tea.Cmd
	m.ListPanel, cmd = m.ListPanel.Update(msg)
	return m, cmd
}

func (m Model) handleFormSubmit() (tea.Model, tea.Cmd) {
	switch m.formKind {
	case FormLog:
		cv := m.content
		if cv == nil {
			m.Form.Hide()
			return m, nil
		}
		draft, err := logbook.ParseDraft(cv.ref, m.Form.DraftInput(), time.Now())
		if err == nil {
			err = m.deps.Logbook.Validate(draft)
		}
		if err != nil {
			m.Form.SetError(err)
			return m, nil
		}
		m.Form.SetBusy(true)
		return m, CreateLogCmd(m.deps.Logbook, cv.ref, draft)

	case FormSwitchList:
		name := m.Form.Value("name")
		if name == "" {
			name = m.listName
		}
		m.Form.Hide()
		m.formKind = FormNone
		m.ListPanel.ClearFilter()
		m.Mode = ViewList
		return m, LoadListCmd(m.deps.Lists, name)
	}

	m.Form.Hide()
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.content != nil {
		m.content.close()
	}
	m.Suggest.Close()
	m.logger.Info("quitting", "list", m.listName)
	return m, tea.Quit
}

// listLabel is shown in the header
func (m Model) listLabel() string {
	if list := m.ListPanel.List(); list != nil {
		return fmt.Sprintf("%s (%d)", list.Name, len(list.Entries))
	}
	return m.listName
}

package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/stats"
	"github.com/mmcdole/cinelog/internal/tui/styles"
)

// ListPanel shows one draft list with its watch statistics
type ListPanel struct {
	list    *domain.DraftList
	stats   domain.ListStats
	units   stats.Units
	loading bool
	watched map[string]bool // ref key -> fully watched

	visible []int // indexes into list.Entries after filtering
	cursor  int

	filter    textinput.Model
	filtering bool

	width  int
	height int
}

// NewListPanel creates an empty panel
func NewListPanel(units stats.Units) ListPanel {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.PromptStyle = styles.AccentStyle
	ti.CharLimit = 60
	return ListPanel{units: units, filter: ti}
}

// SetList installs the list, keeping the cursor on the same entry when possible
func (p *ListPanel) SetList(list *domain.DraftList) {
	var keep domain.ContentRef
	if e, ok := p.Selected(); ok {
		keep = e.Ref
	}
	p.list = list
	p.applyFilter()
	if list != nil {
		for i, idx := range p.visible {
			if list.Entries[idx].Ref == keep {
				p.cursor = i
			}
		}
	}
	p.clampCursor()
}

// List returns the list being shown
func (p ListPanel) List() *domain.DraftList {
	return p.list
}

// SetStats installs freshly computed statistics and per-entry watched flags
func (p *ListPanel) SetStats(s domain.ListStats, items []stats.Item) {
	p.stats = s
	p.loading = false
	p.watched = make(map[string]bool, len(items))
	for _, it := range items {
		p.watched[it.Ref.Key()] = stats.IsFullyWatched(it.Type(), it.Logs)
	}
}

// SetLoading marks statistics as being recomputed
func (p *ListPanel) SetLoading(loading bool) {
	p.loading = loading
}

// SetSize updates the panel dimensions
func (p *ListPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.filter.Width = max(10, width-12)
}

// Selected returns the entry under the cursor
func (p ListPanel) Selected() (domain.ListEntry, bool) {
	if p.list == nil || p.cursor < 0 || p.cursor >= len(p.visible) {
		return domain.ListEntry{}, false
	}
	return p.list.Entries[p.visible[p.cursor]], true
}

// SelectedIndex returns the list index of the entry under the cursor, or -1
func (p ListPanel) SelectedIndex() int {
	if p.cursor < 0 || p.cursor >= len(p.visible) {
		return -1
	}
	return p.visible[p.cursor]
}

// Filtered reports whether a filter narrows the entries
func (p ListPanel) Filtered() bool {
	return strings.TrimSpace(p.filter.Value()) != ""
}

// Filtering reports whether the filter input has focus
func (p ListPanel) Filtering() bool {
	return p.filtering
}

// StartFilter focuses the filter input
func (p *ListPanel) StartFilter() tea.Cmd {
	p.filtering = true
	return p.filter.Focus()
}

// ClearFilter drops the filter
func (p *ListPanel) ClearFilter() {
	p.filtering = false
	p.filter.Blur()
	p.filter.SetValue("")
	p.applyFilter()
	p.clampCursor()
}

// Select moves the cursor to the entry at list index idx if it is visible
func (p *ListPanel) Select(idx int) {
	for i, v := range p.visible {
		if v == idx {
			p.cursor = i
			return
		}
	}
}

func (p *ListPanel) applyFilter() {
	p.visible = nil
	if p.list == nil {
		return
	}
	term := strings.TrimSpace(p.filter.Value())
	if term == "" {
		for i := range p.list.Entries {
			p.visible = append(p.visible, i)
		}
		return
	}

	titles := make([]string, len(p.list.Entries))
	for i, e := range p.list.Entries {
		titles[i] = e.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(term, titles)
	sort.Sort(ranks)
	for _, r := range ranks {
		p.visible = append(p.visible, r.OriginalIndex)
	}
}

func (p *ListPanel) clampCursor() {
	if p.cursor >= len(p.visible) {
		p.cursor = len(p.visible) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// Update handles navigation and filter input
func (p ListPanel) Update(msg tea.Msg) (ListPanel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	if p.filtering {
		switch {
		case key.Matches(keyMsg, ListKeys.Escape):
			p.ClearFilter()
			return p, nil
		case key.Matches(keyMsg, ListKeys.Accept):
			p.filtering = false
			p.filter.Blur()
			return p, nil
		}
		var cmd tea.Cmd
		p.filter, cmd = p.filter.Update(msg)
		p.applyFilter()
		p.cursor = 0
		return p, cmd
	}

	switch {
	case key.Matches(keyMsg, ListKeys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(keyMsg, ListKeys.Down):
		if p.cursor < len(p.visible)-1 {
			p.cursor++
		}
	case key.Matches(keyMsg, ListKeys.Home):
		p.cursor = 0
	case key.Matches(keyMsg, ListKeys.End):
		p.cursor = max(0, len(p.visible)-1)
	case key.Matches(keyMsg, ListKeys.Escape):
		if p.Filtered() {
			p.ClearFilter()
		}
	}
	return p, nil
}

// View renders the stats header and the entries
func (p ListPanel) View() string {
	if p.list == nil {
		return styles.DimStyle.Render("No list selected")
	}

	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(p.list.Name))
	b.WriteString("  ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%d titles", len(p.list.Entries))))
	b.WriteString("\n\n")
	b.WriteString(p.renderStats())
	b.WriteString("\n\n")

	if p.filtering || p.Filtered() {
		b.WriteString(p.filter.View())
		b.WriteString("\n")
	}

	if len(p.visible) == 0 {
		if p.Filtered() {
			b.WriteString(styles.DimStyle.Render("No matches"))
		} else {
			b.WriteString(styles.DimStyle.Render("Empty list. Search with / and press a to add."))
		}
		return b.String()
	}

	rows := max(3, p.height-lipgloss.Height(b.String())-1)
	offset := 0
	if p.cursor >= rows {
		offset = p.cursor - rows + 1
	}

	end := min(len(p.visible), offset+rows)
	for i := offset; i < end; i++ {
		idx := p.visible[i]
		e := p.list.Entries[idx]

		mark := styles.DimStyle.Render(styles.UnwatchedChar)
		if p.watched[e.Ref.Key()] {
			mark = styles.WatchedStyle.Render(styles.WatchedChar)
		}
		title := e.Title
		if e.Year != "" {
			title = fmt.Sprintf("%s (%s)", e.Title, e.Year)
		}
		line := fmt.Sprintf("%2d. %s", idx+1, styles.Truncate(title, max(10, p.width-12)))

		style := styles.NormalItemStyle
		if i == p.cursor {
			style = styles.SelectedItemStyle
		}
		b.WriteString(mark + style.Render(line))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (p ListPanel) renderStats() string {
	s := p.stats
	if p.loading {
		return styles.DimStyle.Render("Computing stats...")
	}
	bar := styles.RenderProgressBar(s.PercentWatched, 20)
	line1 := fmt.Sprintf("%s %d%%  %d/%d watched", bar, s.PercentWatched, s.WatchedCount, s.TotalCount)
	line2 := fmt.Sprintf("%s of %s",
		stats.FormatDuration(s.WatchedDurationMinutes, p.units),
		stats.FormatDuration(s.TotalDurationMinutes, p.units))
	return line1 + "\n" + styles.SubtitleStyle.Render(line2)
}

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/stats"
	"github.com/mmcdole/cinelog/internal/toggle"
	"github.com/mmcdole/cinelog/internal/tui/styles"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m Model) spinner() string {
	return styles.AccentStyle.Render(spinnerFrames[m.SpinnerFrame%len(spinnerFrames)])
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	header := m.renderHeader()
	search := m.SearchBox.View()
	footer := m.renderFooter()

	bodyHeight := m.Height - lipgloss.Height(header) - lipgloss.Height(search) - lipgloss.Height(footer)
	bodyHeight = max(1, bodyHeight)

	var body string
	switch {
	case m.Form.IsVisible():
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center, m.Form.View())
	case m.ShowHelp:
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderHelp())
	case m.Mode == ViewList:
		body = lipgloss.NewStyle().Padding(1, 2).Render(m.ListPanel.View())
	default:
		body = lipgloss.NewStyle().Padding(1, 2).Width(m.Width).Render(m.renderContent(bodyHeight - 2))
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, search, body, footer)
}

func (m Model) renderHeader() string {
	user := "anonymous"
	if !m.session.Anonymous() {
		user = m.session.Username
		if user == "" {
			user = "signed in"
		}
	}
	left := styles.HeaderStyle.Render("cinelog")
	right := styles.DimStyle.Render(fmt.Sprintf("%s · list: %s", user, m.listLabel()))
	gap := max(1, m.Width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderFooter() string {
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.ErrorStyle.Render(m.StatusMsg)
		}
		return styles.SuccessStyle.Render(m.StatusMsg)
	}

	switch {
	case m.SearchBox.Focused():
		return styles.RenderHelp("enter", "open", "↑/↓", "move", "esc", "close")
	case m.Mode == ViewList:
		return styles.RenderHelp("enter", "open", "x", "remove", "K/J", "move", "f", "filter", "s", "switch", "L", "back", "?", "help")
	default:
		return styles.RenderHelp("/", "search", "w", "watchlist", "l", "like", "n", "log", "a", "add", "L", "list", "?", "help")
	}
}

func (m Model) renderContent(height int) string {
	cv := m.content
	if cv == nil {
		return styles.DimStyle.Render("Search for a movie or show with / to get started.")
	}

	var b strings.Builder

	title := cv.title()
	year := cv.seed.Year
	if cv.detail != nil {
		year = cv.detail.Year
	}
	b.WriteString(styles.TitleStyle.Render(title))
	if year != "" {
		b.WriteString(styles.SubtitleStyle.Render(" (" + year + ")"))
	}
	b.WriteString("  ")
	b.WriteString(styles.DimStyle.Render(strings.ToUpper(string(cv.ref.Type))))
	b.WriteString("\n")

	switch {
	case cv.detailLoading && cv.detail == nil:
		b.WriteString(m.spinner() + styles.DimStyle.Render(" loading details"))
	case cv.detail != nil:
		b.WriteString(styles.SubtitleStyle.Render(m.renderRuntime(stats.Item{Ref: cv.ref, Detail: cv.detail}.Type(), cv.detail)))
	case cv.detailErr != nil:
		b.WriteString(styles.ErrorStyle.Render(domain.UserMessage(cv.detailErr)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderWatchlist(cv.watchlist.State()))
	b.WriteString("\n\n")

	if cv.detail != nil && cv.detail.Overview != "" {
		width := max(20, m.Width-6)
		b.WriteString(lipgloss.NewStyle().Width(width).Foreground(styles.LightGray).Render(cv.detail.Overview))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.AccentStyle.Render("Your logs"))
	b.WriteString("\n")
	b.WriteString(m.renderLogs(cv, max(1, height-lipgloss.Height(b.String()))))
	return b.String()
}

func (m Model) renderRuntime(t domain.ContentType, d *domain.ContentDetail) string {
	minutes := stats.Duration(t, d)
	if minutes == 0 {
		return "runtime unknown"
	}
	text := stats.FormatDuration(minutes, m.opts.Units)
	if t == domain.ContentTypeTV && d.NumberOfEpisodes != nil {
		text = fmt.Sprintf("%d episodes · %s", *d.NumberOfEpisodes, text)
	}
	return text
}

func (m Model) renderWatchlist(s toggle.State) string {
	mark, label := styles.BookmarkOff, "Add to watchlist"
	style := styles.SubtitleStyle
	if s.Active {
		mark, label = styles.BookmarkChar, "On your watchlist"
		style = styles.AccentStyle
	}

	line := style.Render(mark + " " + label)
	if s.Busy() {
		line += " " + m.spinner()
	}
	if s.Err != nil {
		line += "  " + styles.ErrorStyle.Render(domain.UserMessage(s.Err))
	}
	return line
}

func (m Model) renderLogs(cv *contentView, rows int) string {
	switch {
	case cv.logsLoading && len(cv.logs) == 0:
		return m.spinner() + styles.DimStyle.Render(" loading logs")
	case errors.Is(cv.logsErr, domain.ErrAnonymous):
		return styles.DimStyle.Render("Sign in to see your logs")
	case cv.logsErr != nil:
		return styles.ErrorStyle.Render(domain.UserMessage(cv.logsErr))
	case len(cv.logs) == 0:
		return styles.DimStyle.Render("Not logged yet. Press n to log a watch.")
	}

	offset := 0
	if cv.cursor >= rows {
		offset = cv.cursor - rows + 1
	}
	end := min(len(cv.logs), offset+rows)

	var lines []string
	for i := offset; i < end; i++ {
		l := cv.logs[i]
		lines = append(lines, m.renderLogRow(l, cv.likes[l.LogID], i == cv.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLogRow(l domain.LogEntry, like *toggle.Controller, selected bool) string {
	scope := l.Label()
	if scope == "" {
		scope = "whole"
	}
	rating := "  -  "
	if l.Rating != nil {
		rating = fmt.Sprintf("%4.1f★", *l.Rating)
	}
	parts := []string{
		l.WatchedDate.Format("2006-01-02"),
		fmt.Sprintf("%-7s", scope),
		rating,
	}
	if l.IsRewatch {
		parts = append(parts, "↻")
	}
	if l.Review != "" {
		parts = append(parts, styles.Truncate(l.Review, max(10, m.Width-50)))
	}

	style := styles.NormalItemStyle
	if selected {
		style = styles.SelectedItemStyle
	}
	row := style.Render(strings.Join(parts, "  "))

	if like != nil {
		s := like.State()
		heart := styles.DimStyle.Render(styles.HeartOffChar)
		if s.Active {
			heart = styles.LikedStyle.Render(styles.HeartChar)
		}
		row += fmt.Sprintf(" %s %d", heart, s.Count)
		if s.Busy() {
			row += " " + m.spinner()
		}
		if s.Err != nil && selected {
			row += "  " + styles.ErrorStyle.Render(domain.UserMessage(s.Err))
		}
	}
	return row
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"/", "search titles"},
		{"enter", "open selection"},
		{"w", "toggle watchlist"},
		{"l", "like the selected log"},
		{"n", "log a watch"},
		{"a", "add title to the current list"},
		{"r", "refresh title"},
		{"L", "show or hide the list"},
		{"s", "switch or create a list"},
		{"x", "remove from list"},
		{"K / J", "move entry up or down"},
		{"f", "filter the list"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Keys"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(styles.HelpKeyStyle.Width(8).Render(r[0]))
		b.WriteString(styles.HelpDescStyle.Render(r[1]))
		b.WriteString("\n")
	}
	return styles.ModalStyle.Render(strings.TrimRight(b.String(), "\n"))
}

package components

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/logbook"
	"github.com/mmcdole/cinelog/internal/tui/styles"
)

const formWidth = 44

// FormField is one labelled input of a FormModal
type FormField struct {
	Key         string // validation field name errors are reported under
	Label       string
	Placeholder string
	CharLimit   int
}

// FormModal is a small multi-field input modal with per-field error lines
type FormModal struct {
	visible bool
	title   string
	fields  []FormField
	inputs  []textinput.Model
	focus   int
	toggle  string // optional checkbox label, flipped with ctrl+r
	checked bool
	errs    map[string]string
	banner  string
	busy    bool
}

// NewFormModal creates a hidden form
func NewFormModal() FormModal {
	return FormModal{}
}

// Show displays the modal with the given fields, all empty
func (m *FormModal) Show(title string, fields ...FormField) tea.Cmd {
	m.visible = true
	m.title = title
	m.fields = fields
	m.inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = f.CharLimit
		if ti.CharLimit == 0 {
			ti.CharLimit = 50
		}
		ti.Width = formWidth - 16
		ti.Prompt = ""
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		m.inputs[i] = ti
	}
	m.focus = 0
	m.toggle = ""
	m.checked = false
	m.errs = nil
	m.banner = ""
	m.busy = false
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[0].Focus()
}

// ShowLogForm opens the log-a-watch form for content of type t
func (m *FormModal) ShowLogForm(title string, t domain.ContentType) tea.Cmd {
	fields := []FormField{
		{Key: "rating", Label: "Rating", Placeholder: "0.5-10, blank for none", CharLimit: 4},
		{Key: "watchedDate", Label: "Watched", Placeholder: "today", CharLimit: 10},
	}
	if t == domain.ContentTypeTV {
		fields = append(fields,
			FormField{Key: "seasonNumber", Label: "Season", Placeholder: "whole show", CharLimit: 3},
			FormField{Key: "episodeNumber", Label: "Episode", Placeholder: "whole season", CharLimit: 4},
		)
	}
	fields = append(fields, FormField{Key: "review", Label: "Review", CharLimit: 5000})
	cmd := m.Show(title, fields...)
	m.toggle = "Rewatch"
	return cmd
}

// Hide dismisses the modal
func (m *FormModal) Hide() {
	m.visible = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// IsVisible returns whether the modal is shown
func (m FormModal) IsVisible() bool {
	return m.visible
}

// Value returns the text of the field with the given key
func (m FormModal) Value(key string) string {
	for i, f := range m.fields {
		if f.Key == key {
			return m.inputs[i].Value()
		}
	}
	return ""
}

// Checked reports the state of the form's checkbox
func (m FormModal) Checked() bool {
	return m.checked
}

// DraftInput collects the log form into its raw input
func (m FormModal) DraftInput() logbook.DraftInput {
	return logbook.DraftInput{
		Rating:  m.Value("rating"),
		Date:    m.Value("watchedDate"),
		Season:  m.Value("seasonNumber"),
		Episode: m.Value("episodeNumber"),
		Review:  m.Value("review"),
		Rewatch: m.checked,
	}
}

// SetBusy marks a submit in flight; input is ignored until it settles
func (m *FormModal) SetBusy(busy bool) {
	m.busy = busy
}

// SetError shows err next to its fields, or as a banner when it is not
// a validation failure
func (m *FormModal) SetError(err error) {
	m.busy = false
	m.errs = nil
	m.banner = ""
	if err == nil {
		return
	}

	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		m.errs = make(map[string]string, len(verrs))
		for _, ve := range verrs {
			if m.hasField(ve.Field) {
				if _, dup := m.errs[ve.Field]; !dup {
					m.errs[ve.Field] = ve.Message
				}
				continue
			}
			m.banner = ve.Error()
		}
		return
	}
	m.banner = domain.UserMessage(err)
}

func (m FormModal) hasField(k string) bool {
	for _, f := range m.fields {
		if f.Key == k {
			return true
		}
	}
	return false
}

// Update handles input events, returns (modal, cmd, submitted)
func (m FormModal) Update(msg tea.Msg) (FormModal, tea.Cmd, bool) {
	if !m.visible || m.busy {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, FormKeys.Submit):
			return m, nil, true
		case key.Matches(keyMsg, FormKeys.Cancel):
			m.Hide()
			return m, nil, false
		case key.Matches(keyMsg, FormKeys.Next):
			return m, m.moveFocus(1), false
		case key.Matches(keyMsg, FormKeys.Prev):
			return m, m.moveFocus(-1), false
		case key.Matches(keyMsg, FormKeys.Check):
			if m.toggle != "" {
				m.checked = !m.checked
			}
			return m, nil, false
		}
	}

	if len(m.inputs) == 0 {
		return m, nil, false
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd, false
}

func (m *FormModal) moveFocus(delta int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

// View renders the form
func (m FormModal) View() string {
	if !m.visible {
		return ""
	}

	bg := lipgloss.NewStyle().Width(formWidth).Background(styles.SlateDark)
	label := lipgloss.NewStyle().Width(10).Foreground(styles.LightGray).Background(styles.SlateDark)

	lines := []string{styles.ModalTitleStyle.Width(formWidth).Background(styles.SlateDark).Render(m.title)}
	for i, f := range m.fields {
		l := label
		if i == m.focus {
			l = l.Foreground(styles.Reel)
		}
		lines = append(lines, bg.Render(l.Render(f.Label)+m.inputs[i].View()))
		if msg, ok := m.errs[f.Key]; ok {
			lines = append(lines, bg.Render(strings.Repeat(" ", 10)+styles.ErrorStyle.Render(msg)))
		}
	}
	if m.toggle != "" {
		box := "[ ]"
		if m.checked {
			box = "[x]"
		}
		lines = append(lines, bg.Render(label.Render(m.toggle)+box+styles.DimStyle.Render("  ctrl+r")))
	}
	if m.banner != "" {
		lines = append(lines, "", bg.Render(styles.ErrorStyle.Render(m.banner)))
	}
	footer := styles.RenderHelp("tab", "next", "enter", "save", "esc", "cancel")
	if m.busy {
		footer = styles.DimStyle.Render("Saving...")
	}
	lines = append(lines, "", bg.Render(footer))

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

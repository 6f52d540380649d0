package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/suggest"
	"github.com/mmcdole/cinelog/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 8

// SuggestAction is what the parent should do after a SuggestBox update
type SuggestAction int

const (
	SuggestNone SuggestAction = iota
	SuggestTermChanged
	SuggestSelected
	SuggestClosed
)

// SuggestBox is the search input with its dropdown of suggestions.
// It renders a suggest.State snapshot; the controller owns the truth.
type SuggestBox struct {
	input   textinput.Model
	state   suggest.State
	cursor  int
	focused bool
	width   int
	top     int // first screen row of the box
}

// NewSuggestBox creates a new suggestion box
func NewSuggestBox() SuggestBox {
	ti := textinput.New()
	ti.Placeholder = "Search movies and shows..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return SuggestBox{input: ti}
}

// Focus gives the box keyboard input
func (s *SuggestBox) Focus() tea.Cmd {
	s.focused = true
	return s.input.Focus()
}

// Blur releases keyboard input without touching the term
func (s *SuggestBox) Blur() {
	s.focused = false
	s.input.Blur()
}

// Reset clears the input
func (s *SuggestBox) Reset() {
	s.input.SetValue("")
	s.cursor = 0
}

// Focused reports whether the box has keyboard input
func (s SuggestBox) Focused() bool {
	return s.focused
}

// Term returns the text in the input
func (s SuggestBox) Term() string {
	return s.input.Value()
}

// Cursor returns the highlighted result index
func (s SuggestBox) Cursor() int {
	return s.cursor
}

// SetState installs the latest controller snapshot
func (s *SuggestBox) SetState(st suggest.State) {
	s.state = st
	if s.cursor >= len(st.Results) {
		s.cursor = max(0, len(st.Results)-1)
	}
}

// SetLayout positions the box
func (s *SuggestBox) SetLayout(width, top int) {
	s.width = width
	s.top = top
	s.input.Width = max(10, width-10)
}

// Height is the number of rows the box currently occupies
func (s SuggestBox) Height() int {
	return lipgloss.Height(s.View())
}

// Contains reports whether the screen row y is inside the box
func (s SuggestBox) Contains(y int) bool {
	return y >= s.top && y < s.top+s.Height()
}

// Update handles key input. Only call it while focused.
func (s SuggestBox) Update(msg tea.Msg) (SuggestBox, tea.Cmd, SuggestAction) {
	if !s.focused {
		return s, nil, SuggestNone
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, SuggestKeys.Escape):
			s.Blur()
			return s, nil, SuggestClosed

		case key.Matches(msg, SuggestKeys.Enter):
			if s.state.Visible && len(s.state.Results) > 0 {
				return s, nil, SuggestSelected
			}
			return s, nil, SuggestNone

		case key.Matches(msg, SuggestKeys.Down):
			if s.cursor < min(len(s.state.Results), maxSuggestions)-1 {
				s.cursor++
			}
			return s, nil, SuggestNone

		case key.Matches(msg, SuggestKeys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil, SuggestNone
		}
	}

	before := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() != before {
		s.cursor = 0
		return s, cmd, SuggestTermChanged
	}
	return s, cmd, SuggestNone
}

// View renders the input and, when visible, the result dropdown
func (s SuggestBox) View() string {
	var b strings.Builder
	b.WriteString(s.input.View())

	st := s.state
	if st.Visible || st.Err != "" {
		b.WriteString("\n")
		switch {
		case st.Err != "":
			b.WriteString(styles.ErrorStyle.Render(st.Err))
		case st.Loading && len(st.Results) == 0:
			b.WriteString(styles.DimStyle.Render("Searching..."))
		case len(st.Results) == 0:
			b.WriteString(styles.DimStyle.Render("No matches found"))
		default:
			s.renderResults(&b)
		}
	}

	border := styles.InactiveBorder
	if s.focused {
		border = styles.ActiveBorder
	}
	return border.Width(max(20, s.width-2)).Render(b.String())
}

func (s SuggestBox) renderResults(b *strings.Builder) {
	results := s.state.Results
	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.DisplayTitle()
	}

	matched := make(map[int][]int, len(results))
	for _, m := range fuzzy.Find(strings.TrimSpace(s.state.Term), titles) {
		matched[m.Index] = m.MatchedIndexes
	}

	n := min(len(results), maxSuggestions)
	maxTitle := max(10, s.width-16)
	for i := 0; i < n; i++ {
		r := results[i]
		selected := i == s.cursor && s.focused

		badge := "MOV "
		if r.Type == domain.ContentTypeTV {
			badge = "TV  "
		}
		b.WriteString(styles.DimStyle.Render(badge))

		title := titles[i]
		idx := matched[i]
		if len([]rune(title)) > maxTitle {
			title = styles.Truncate(title, maxTitle)
			idx = nil
		}
		b.WriteString(highlightMatches(title, idx, selected))
		if i < n-1 {
			b.WriteString("\n")
		}
	}
	if len(results) > maxSuggestions {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("... and %d more", len(results)-maxSuggestions)))
	}
	if s.state.Loading {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render("Updating..."))
	}
}

// highlightMatches renders text with the matched byte offsets highlighted
func highlightMatches(text string, matchedIndexes []int, selected bool) string {
	normal := lipgloss.NewStyle().Foreground(styles.LightGray)
	match := styles.MatchHighlightStyle
	if selected {
		normal = lipgloss.NewStyle().Foreground(styles.White).Background(styles.SlateLight)
		match = styles.MatchHighlightSelectedStyle
	}
	if len(matchedIndexes) == 0 {
		return normal.Render(text)
	}

	matchSet := make(map[int]bool, len(matchedIndexes))
	for _, idx := range matchedIndexes {
		matchSet[idx] = true
	}

	// Batch consecutive characters with the same style
	var out, batch strings.Builder
	batchMatch := false
	flush := func() {
		if batch.Len() == 0 {
			return
		}
		if batchMatch {
			out.WriteString(match.Render(batch.String()))
		} else {
			out.WriteString(normal.Render(batch.String()))
		}
		batch.Reset()
	}
	for i, r := range text {
		if matchSet[i] != batchMatch {
			flush()
			batchMatch = matchSet[i]
		}
		batch.WriteRune(r)
	}
	flush()
	return out.String()
}

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Reel       = lipgloss.Color("#F2B138")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Rose       = lipgloss.Color("#F472B6")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Reel)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Reel)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Reel).
			Bold(true).
			Padding(0, 1)
)

// Toggle indicators
const (
	HeartChar     = "♥"
	HeartOffChar  = "♡"
	BookmarkChar  = "★"
	BookmarkOff   = "☆"
	WatchedChar   = "✓"
	UnwatchedChar = "●"
)

var (
	LikedStyle   = lipgloss.NewStyle().Foreground(Rose)
	WatchedStyle = lipgloss.NewStyle().Foreground(Green)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight).
				Padding(0, 1)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Reel).
			Padding(1, 2).
			Background(SlateDark)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Reel)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Progress bar styles
var (
	ProgressFullStyle = lipgloss.NewStyle().
				Foreground(Reel)

	ProgressEmptyStyle = lipgloss.NewStyle().
				Foreground(DimGray)
)

// Match highlight styles for search results
var (
	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(Reel).
				Bold(true)

	MatchHighlightSelectedStyle = lipgloss.NewStyle().
					Foreground(Reel).
					Background(SlateLight).
					Bold(true)
)

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// RenderProgressBar renders a percent bar of the given width
func RenderProgressBar(percent int, width int) string {
	if width < 3 {
		return ""
	}
	filled := width * percent / 100
	filled = min(max(filled, 0), width)

	return ProgressFullStyle.Render(strings.Repeat("█", filled)) +
		ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// RenderHelp renders "key desc" pairs separated by dots
func RenderHelp(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, HelpKeyStyle.Render(pairs[i])+" "+HelpDescStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, DimStyle.Render(" · "))
}

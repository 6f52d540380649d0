package stats

import (
	"fmt"
	"math"
)

// Units are the labels used when printing durations
type Units struct {
	Minutes string
	Hours   string
	Spaced  bool // "45 dk" rather than "45m"
}

var (
	UnitsEN = Units{Minutes: "m", Hours: "h"}
	UnitsTR = Units{Minutes: "dk", Hours: "sa", Spaced: true}
)

// UnitsFor returns the labels for a language code, defaulting to English
func UnitsFor(lang string) Units {
	if lang == "tr" {
		return UnitsTR
	}
	return UnitsEN
}

// FormatDuration renders minutes for display. From 60 minutes on it shows
// whole hours, rounded; the rounding is for display only.
func FormatDuration(minutes int, u Units) string {
	value, label := minutes, u.Minutes
	if minutes >= 60 {
		value = int(math.Round(float64(minutes) / 60))
		label = u.Hours
	}
	if u.Spaced {
		return fmt.Sprintf("%d %s", value, label)
	}
	return fmt.Sprintf("%d%s", value, label)
}

// Package stats derives watch statistics for a list of titles.
package stats

import (
	"math"

	"github.com/mmcdole/cinelog/internal/domain"
)

// Item is one resolved list entry with the current user's logs for it.
// A nil Detail contributes zero duration.
type Item struct {
	Ref    domain.ContentRef
	Detail *domain.ContentDetail
	Logs   []domain.LogEntry
}

// Type is the item's content type. The detail's type wins when it has one.
func (it Item) Type() domain.ContentType {
	if it.Detail != nil && it.Detail.Ref.Type != "" {
		return it.Detail.Ref.Type
	}
	return it.Ref.Type
}

// IsFullyWatched is the single rule for "this title counts as watched".
// Any log watches a movie. A series needs a whole-series log (no season);
// season or episode logs alone do not count it as watched.
func IsFullyWatched(t domain.ContentType, logs []domain.LogEntry) bool {
	switch t {
	case domain.ContentTypeMovie:
		return len(logs) > 0
	case domain.ContentTypeTV:
		for _, l := range logs {
			if l.SeasonNumber == nil {
				return true
			}
		}
	}
	return false
}

// Duration returns the total minutes of a title of type t: runtime for a
// movie, episodes times the first episode runtime for a series. Missing data is 0.
func Duration(t domain.ContentType, d *domain.ContentDetail) int {
	if d == nil {
		return 0
	}
	switch t {
	case domain.ContentTypeMovie:
		if d.Runtime == nil {
			return 0
		}
		return max(0, *d.Runtime)
	case domain.ContentTypeTV:
		if d.NumberOfEpisodes == nil || len(d.EpisodeRunTime) == 0 {
			return 0
		}
		return max(0, *d.NumberOfEpisodes*d.EpisodeRunTime[0])
	}
	return 0
}

// PercentWatched rounds watched/total to a whole percent; 0 for an empty list
func PercentWatched(watched, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(watched) / float64(total) * 100))
}

// Compute aggregates items. It is a pure function of its input.
func Compute(items []Item) domain.ListStats {
	var s domain.ListStats
	s.TotalCount = len(items)

	for _, it := range items {
		typ := it.Type()
		minutes := Duration(typ, it.Detail)
		s.TotalDurationMinutes += minutes

		if IsFullyWatched(typ, it.Logs) {
			s.WatchedCount++
			s.WatchedDurationMinutes += minutes
		}
	}

	s.PercentWatched = PercentWatched(s.WatchedCount, s.TotalCount)
	return s
}

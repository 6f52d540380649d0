package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ContentType distinguishes trackable content
type ContentType string

const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeTV    ContentType = "tv"
)

// ParseContentType converts a raw type string ("movie", "tv") into a ContentType
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown content type: %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known content types
func (t ContentType) Valid() bool {
	return t == ContentTypeMovie || t == ContentTypeTV
}

// ContentRef identifies a piece of trackable content.
// Identity is the (ID, Type) pair: movie 603 and tv 603 are different refs.
type ContentRef struct {
	ID   int         `json:"id"`
	Type ContentType `json:"type"`
}

// Key returns the stable string form of the ref (e.g., "movie:603")
func (r ContentRef) Key() string {
	return string(r.Type) + ":" + strconv.Itoa(r.ID)
}

func (r ContentRef) String() string {
	return r.Key()
}

// ParseContentRef parses the "type:id" form produced by Key
func ParseContentRef(s string) (ContentRef, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return ContentRef{}, fmt.Errorf("invalid content ref %q: want type:id", s)
	}
	ct, err := ParseContentType(typ)
	if err != nil {
		return ContentRef{}, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n <= 0 {
		return ContentRef{}, fmt.Errorf("invalid content id in %q", s)
	}
	return ContentRef{ID: n, Type: ct}, nil
}

// LogScope describes what part of a title a log entry covers
type LogScope int

const (
	ScopeWhole   LogScope = iota // whole movie or whole series
	ScopeSeason                  // a single season
	ScopeEpisode                 // a single episode
)

// LogEntry is a user's record of having watched a piece of content
type LogEntry struct {
	LogID         string
	Ref           ContentRef
	SeasonNumber  *int     // nil = whole series (or movie)
	EpisodeNumber *int     // nil with a season set = whole season
	Rating        *float64 // 0.5-10 in half steps
	Review        string
	IsRewatch     bool
	CreatedAt     time.Time
	WatchedDate   time.Time
	LikeCount     int
	Username      string
}

// Scope returns whether the entry logs the whole title, a season, or an episode
func (l LogEntry) Scope() LogScope {
	switch {
	case l.SeasonNumber == nil:
		return ScopeWhole
	case l.EpisodeNumber == nil:
		return ScopeSeason
	default:
		return ScopeEpisode
	}
}

// Label returns a short description of the entry scope (e.g., "S02E05")
func (l LogEntry) Label() string {
	switch l.Scope() {
	case ScopeSeason:
		return fmt.Sprintf("S%02d", *l.SeasonNumber)
	case ScopeEpisode:
		return fmt.Sprintf("S%02dE%02d", *l.SeasonNumber, *l.EpisodeNumber)
	default:
		return ""
	}
}

// LogDraft is the payload for creating a log entry
type LogDraft struct {
	ContentID     int       `json:"contentId" validate:"required,gt=0"`
	ContentType   string    `json:"contentType" validate:"required,oneof=movie tv"`
	SeasonNumber  *int      `json:"seasonNumber,omitempty" validate:"omitempty,gte=0"`
	EpisodeNumber *int      `json:"episodeNumber,omitempty" validate:"omitempty,gt=0"`
	Rating        *float64  `json:"rating,omitempty" validate:"omitempty,gte=0.5,lte=10,halfstep"`
	Review        string    `json:"review,omitempty" validate:"max=5000"`
	IsRewatch     bool      `json:"isRewatch"`
	WatchedDate   time.Time `json:"watchedDate" validate:"required,notfuture"`
}

// WatchlistItem is an entry in the user's watchlist
type WatchlistItem struct {
	ItemID  string
	Ref     ContentRef
	AddedAt time.Time
}

// Suggestion is a lightweight search hit used for autocomplete.
// Never mutated; discarded when the search term changes.
type Suggestion struct {
	ID         int
	Type       ContentType
	Title      string
	Year       string
	PosterPath *string
}

// Ref returns the content ref the suggestion points at
func (s Suggestion) Ref() ContentRef {
	return ContentRef{ID: s.ID, Type: s.Type}
}

// DisplayTitle returns "Title (Year)" or just the title when the year is unknown
func (s Suggestion) DisplayTitle() string {
	if s.Year == "" {
		return s.Title
	}
	return fmt.Sprintf("%s (%s)", s.Title, s.Year)
}

// ContentDetail carries the fields needed for duration accounting
type ContentDetail struct {
	Ref              ContentRef `json:"ref"`
	Title            string     `json:"title"`
	Year             string     `json:"year,omitempty"`
	Overview         string     `json:"overview,omitempty"`
	PosterPath       *string    `json:"posterPath,omitempty"`
	Runtime          *int       `json:"runtime,omitempty"`          // movies, minutes
	NumberOfEpisodes *int       `json:"numberOfEpisodes,omitempty"` // tv
	EpisodeRunTime   []int      `json:"episodeRunTime,omitempty"`   // tv, minutes
}

// ListStats is the derived watch summary for a list of content
type ListStats struct {
	WatchedCount           int
	TotalCount             int
	PercentWatched         int
	TotalDurationMinutes   int
	WatchedDurationMinutes int
}

// ListEntry is one item of a curated list
type ListEntry struct {
	Ref        ContentRef `json:"ref"`
	Title      string     `json:"title"`
	Year       string     `json:"year,omitempty"`
	PosterPath *string    `json:"posterPath,omitempty"`
	AddedAt    time.Time  `json:"addedAt"`
}

// EntryFromSuggestion builds a list entry from a selected suggestion
func EntryFromSuggestion(s Suggestion) ListEntry {
	return ListEntry{
		Ref:        s.Ref(),
		Title:      s.Title,
		Year:       s.Year,
		PosterPath: s.PosterPath,
		AddedAt:    time.Now().UTC(),
	}
}

// DraftList is a locally curated list of content
type DraftList struct {
	Name      string      `json:"name"`
	Entries   []ListEntry `json:"entries"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Refs returns the content refs of all entries, in list order
func (l DraftList) Refs() []ContentRef {
	refs := make([]ContentRef, len(l.Entries))
	for i, e := range l.Entries {
		refs[i] = e.Ref
	}
	return refs
}

// IndexOf returns the position of ref in the list, or -1
func (l DraftList) IndexOf(ref ContentRef) int {
	for i, e := range l.Entries {
		if e.Ref == ref {
			return i
		}
	}
	return -1
}

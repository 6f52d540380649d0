package logbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/cinelog/internal/domain"
)

// DraftInput is the raw text of the log form
type DraftInput struct {
	Rating  string // "", "7", "7.5"
	Date    string // "", "today", "2024-05-01"
	Season  string
	Episode string
	Review  string
	Rewatch bool
}

// ParseDraft turns form text into a draft for ref. Parse problems come back
// as domain.ValidationErrors, same as Validate.
func ParseDraft(ref domain.ContentRef, in DraftInput, now time.Time) (domain.LogDraft, error) {
	var errs domain.ValidationErrors

	draft := domain.LogDraft{
		ContentID:   ref.ID,
		ContentType: string(ref.Type),
		Review:      strings.TrimSpace(in.Review),
		IsRewatch:   in.Rewatch,
	}

	if r := strings.TrimSpace(in.Rating); r != "" {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: "rating", Message: "must be a number"})
		} else {
			draft.Rating = &v
		}
	}

	switch d := strings.ToLower(strings.TrimSpace(in.Date)); d {
	case "", "today":
		draft.WatchedDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "yesterday":
		draft.WatchedDate = time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, now.Location())
	default:
		t, err := time.ParseInLocation(time.DateOnly, d, now.Location())
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: "watchedDate", Message: "must look like 2024-05-01"})
		} else {
			draft.WatchedDate = t
		}
	}

	parseInt := func(field, raw string) *int {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: field, Message: "must be a whole number"})
			return nil
		}
		return &n
	}
	draft.SeasonNumber = parseInt("seasonNumber", in.Season)
	draft.EpisodeNumber = parseInt("episodeNumber", in.Episode)

	if len(errs) > 0 {
		return draft, errs
	}
	return draft, nil
}

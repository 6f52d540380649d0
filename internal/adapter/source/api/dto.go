package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mmcdole/cinelog/internal/domain"
)

// flexString accepts a JSON string, number, or null.
// IDs and years arrive in either form depending on the endpoint.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexTime accepts RFC 3339 timestamps and plain dates
type flexTime struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		// null or non-string: leave zero
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return nil
}

type suggestionDTO struct {
	ID         int        `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Name       string     `json:"name"`
	Year       flexString `json:"year"`
	PosterPath *string    `json:"poster_path"`
}

type likeStatusDTO struct {
	IsLiked bool `json:"isLiked"`
}

type likeCountDTO struct {
	LikeCount *int `json:"likeCount"`
}

type watchlistStatusDTO struct {
	IsInWatchlist bool       `json:"isInWatchlist"`
	ItemID        flexString `json:"itemId"`
}

type watchlistAddRequest struct {
	ContentID   int    `json:"contentId"`
	ContentType string `json:"contentType"`
}

// watchlistAddDTO covers both {item:{itemId}} and {itemId}
type watchlistAddDTO struct {
	Item *struct {
		ItemID flexString `json:"itemId"`
	} `json:"item"`
	ItemID flexString `json:"itemId"`
}

func (d watchlistAddDTO) itemID() string {
	if d.Item != nil && d.Item.ItemID != "" {
		return string(d.Item.ItemID)
	}
	return string(d.ItemID)
}

type logDTO struct {
	LogID         flexString `json:"logId"`
	ID            flexString `json:"id"`
	ContentID     int        `json:"contentId"`
	ContentType   string     `json:"contentType"`
	SeasonNumber  *int       `json:"seasonNumber"`
	EpisodeNumber *int       `json:"episodeNumber"`
	Rating        *float64   `json:"rating"`
	Review        string     `json:"review"`
	IsRewatch     bool       `json:"isRewatch"`
	CreatedAt     flexTime   `json:"createdAt"`
	WatchedDate   flexTime   `json:"watchedDate"`
	LikeCount     int        `json:"likeCount"`
	Username      string     `json:"username"`
}

type createLogRequest struct {
	ContentID     int      `json:"contentId"`
	ContentType   string   `json:"contentType"`
	SeasonNumber  *int     `json:"seasonNumber"`
	EpisodeNumber *int     `json:"episodeNumber"`
	Rating        *float64 `json:"rating,omitempty"`
	Review        string   `json:"review,omitempty"`
	IsRewatch     bool     `json:"isRewatch"`
	WatchedDate   string   `json:"watchedDate"`
}

func newCreateLogRequest(d domain.LogDraft) createLogRequest {
	return createLogRequest{
		ContentID:     d.ContentID,
		ContentType:   d.ContentType,
		SeasonNumber:  d.SeasonNumber,
		EpisodeNumber: d.EpisodeNumber,
		Rating:        d.Rating,
		Review:        d.Review,
		IsRewatch:     d.IsRewatch,
		WatchedDate:   d.WatchedDate.Format(time.DateOnly),
	}
}

// detailDTO covers both /movies/{id} and /tv/{id}
type detailDTO struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	Runtime          *int    `json:"runtime"`
	NumberOfEpisodes *int    `json:"number_of_episodes"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
}

func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}

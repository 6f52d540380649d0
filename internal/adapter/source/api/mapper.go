package api

import (
	"github.com/mmcdole/cinelog/internal/domain"
)

func mapSuggestions(dtos []suggestionDTO) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(dtos))
	for _, d := range dtos {
		ct, err := domain.ParseContentType(d.Type)
		if err != nil {
			// Not trackable (e.g., a person result)
			continue
		}
		title := d.Title
		if title == "" {
			title = d.Name
		}
		poster := d.PosterPath
		if poster != nil && *poster == "" {
			poster = nil
		}
		out = append(out, domain.Suggestion{
			ID:         d.ID,
			Type:       ct,
			Title:      title,
			Year:       string(d.Year),
			PosterPath: poster,
		})
	}
	return out
}

func mapLogs(dtos []logDTO) []domain.LogEntry {
	out := make([]domain.LogEntry, len(dtos))
	for i, d := range dtos {
		out[i] = mapLog(d)
	}
	return out
}

func mapLog(d logDTO) domain.LogEntry {
	id := string(d.LogID)
	if id == "" {
		id = string(d.ID)
	}
	ct, _ := domain.ParseContentType(d.ContentType)
	return domain.LogEntry{
		LogID:         id,
		Ref:           domain.ContentRef{ID: d.ContentID, Type: ct},
		SeasonNumber:  d.SeasonNumber,
		EpisodeNumber: d.EpisodeNumber,
		Rating:        d.Rating,
		Review:        d.Review,
		IsRewatch:     d.IsRewatch,
		CreatedAt:     d.CreatedAt.Time,
		WatchedDate:   d.WatchedDate.Time,
		LikeCount:     max(0, d.LikeCount),
		Username:      d.Username,
	}
}

func mapDetail(ref domain.ContentRef, d detailDTO) *domain.ContentDetail {
	title, date := d.Title, d.ReleaseDate
	if ref.Type == domain.ContentTypeTV {
		if d.Name != "" {
			title = d.Name
		}
		date = d.FirstAirDate
	}
	poster := d.PosterPath
	if poster != nil && *poster == "" {
		poster = nil
	}
	return &domain.ContentDetail{
		Ref:              ref,
		Title:            title,
		Year:             yearOf(date),
		Overview:         d.Overview,
		PosterPath:       poster,
		Runtime:          d.Runtime,
		NumberOfEpisodes: d.NumberOfEpisodes,
		EpisodeRunTime:   d.EpisodeRunTime,
	}
}

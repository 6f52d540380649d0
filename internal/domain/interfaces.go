package domain

import "context"

// SuggestionSource looks up autocomplete hits for a search term
type SuggestionSource interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
}

// LikeRepository exposes the like endpoints of a log entry.
// Like and Unlike return the authoritative count when the server sends one, nil otherwise.
type LikeRepository interface {
	LikeStatus(ctx context.Context, logID string) (bool, error)
	LikeCount(ctx context.Context, logID string) (int, error)
	Like(ctx context.Context, logID string) (*int, error)
	Unlike(ctx context.Context, logID string) (*int, error)
}

// WatchlistRepository exposes the per-user watchlist endpoints.
// WatchlistStatus returns the item ID when the content is in the watchlist.
type WatchlistRepository interface {
	WatchlistStatus(ctx context.Context, ref ContentRef) (bool, string, error)
	AddToWatchlist(ctx context.Context, ref ContentRef) (string, error)
	RemoveFromWatchlist(ctx context.Context, itemID string) error
}

// LogRepository exposes the log entry endpoints
type LogRepository interface {
	Logs(ctx context.Context, ref ContentRef) ([]LogEntry, error)
	CreateLog(ctx context.Context, draft LogDraft) (*LogEntry, error)
}

// DetailRepository fetches full content details
type DetailRepository interface {
	ContentDetail(ctx context.Context, ref ContentRef) (*ContentDetail, error)
}

// DetailProvider is the read side consumers use for details, cached or not
type DetailProvider interface {
	Detail(ctx context.Context, ref ContentRef) (*ContentDetail, error)
}

// LogProvider is the read side consumers use for the current user's logs
type LogProvider interface {
	ForContent(ctx context.Context, ref ContentRef) ([]LogEntry, error)
}

// API is the full backend surface used by the application
type API interface {
	SuggestionSource
	LikeRepository
	WatchlistRepository
	LogRepository
	DetailRepository

	// Session returns the identity the client is bound to
	Session() Session
}

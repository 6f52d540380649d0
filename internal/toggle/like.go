package toggle

import (
	"context"

	"github.com/mmcdole/cinelog/internal/domain"
)

// LikeActions likes and unlikes one log entry
type LikeActions struct {
	repo  domain.LikeRepository
	logID string
}

// NewLikeActions binds the like endpoints to a log entry
func NewLikeActions(repo domain.LikeRepository, logID string) *LikeActions {
	return &LikeActions{repo: repo, logID: logID}
}

func (a *LikeActions) Status(ctx context.Context) (bool, error) {
	return a.repo.LikeStatus(ctx, a.logID)
}

func (a *LikeActions) Activate(ctx context.Context) (*int, error) {
	return a.repo.Like(ctx, a.logID)
}

func (a *LikeActions) Deactivate(ctx context.Context) (*int, error) {
	return a.repo.Unlike(ctx, a.logID)
}

func (a *LikeActions) Count(ctx context.Context) (int, error) {
	return a.repo.LikeCount(ctx, a.logID)
}

// NewLike builds the like toggle for a log entry, seeded with the count the
// entry was rendered with.
func NewLike(repo domain.LikeRepository, sess domain.Session, entry domain.LogEntry, opts Options) *Controller {
	actions := NewLikeActions(repo, entry.LogID)
	opts.Counter = actions
	opts.InitialCount = entry.LikeCount
	if opts.Name == "" {
		opts.Name = "like:" + entry.LogID
	}
	return New(actions, sess, opts)
}

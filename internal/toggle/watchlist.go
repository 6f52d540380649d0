package toggle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmcdole/cinelog/internal/domain"
)

// WatchlistActions adds and removes one title from the user's watchlist.
// Adding is idempotent: a conflict means the title is already there.
type WatchlistActions struct {
	repo domain.WatchlistRepository
	ref  domain.ContentRef

	mu   sync.Mutex
	item *domain.WatchlistItem // known once status or add has returned it
	now  func() time.Time
}

// NewWatchlistActions binds the watchlist endpoints to a title
func NewWatchlistActions(repo domain.WatchlistRepository, ref domain.ContentRef) *WatchlistActions {
	return &WatchlistActions{repo: repo, ref: ref, now: time.Now}
}

// Item returns the watchlist entry for the title, if known.
// AddedAt is only set for items added through this value.
func (a *WatchlistActions) Item() (domain.WatchlistItem, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.item == nil {
		return domain.WatchlistItem{}, false
	}
	return *a.item, true
}

// ItemID returns the watchlist item id, if known
func (a *WatchlistActions) ItemID() string {
	item, _ := a.Item()
	return item.ItemID
}

func (a *WatchlistActions) setItemID(id string) {
	a.setItem(id, time.Time{})
}

func (a *WatchlistActions) setItem(id string, addedAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id == "" {
		a.item = nil
		return
	}
	if a.item != nil && a.item.ItemID == id && addedAt.IsZero() {
		return
	}
	a.item = &domain.WatchlistItem{ItemID: id, Ref: a.ref, AddedAt: addedAt}
}

func (a *WatchlistActions) Status(ctx context.Context) (bool, error) {
	in, id, err := a.repo.WatchlistStatus(ctx, a.ref)
	if err != nil {
		return false, err
	}
	if in {
		a.setItemID(id)
	} else {
		a.setItemID("")
	}
	return in, nil
}

func (a *WatchlistActions) Activate(ctx context.Context) (*int, error) {
	id, err := a.repo.AddToWatchlist(ctx, a.ref)
	switch {
	case errors.Is(err, domain.ErrConflict):
		// Already on the server; learn its item id
		if _, err := a.Status(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	case err != nil:
		return nil, err
	}

	if id == "" {
		// Some responses omit the id; without it a later remove needs a status read
		_, _ = a.Status(ctx)
		return nil, nil
	}
	a.setItem(id, a.now().UTC())
	return nil, nil
}

func (a *WatchlistActions) Deactivate(ctx context.Context) (*int, error) {
	id := a.ItemID()
	if id == "" {
		in, err := a.Status(ctx)
		if err != nil {
			return nil, err
		}
		if !in {
			// Already gone
			return nil, nil
		}
		id = a.ItemID()
	}

	err := a.repo.RemoveFromWatchlist(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	a.setItemID("")
	return nil, nil
}

// NewWatchlist builds the watchlist toggle for a title
func NewWatchlist(repo domain.WatchlistRepository, sess domain.Session, ref domain.ContentRef, opts Options) *Controller {
	opts.Counter = nil
	opts.TrackCount = false
	if opts.Name == "" {
		opts.Name = "watchlist:" + ref.Key()
	}
	return New(NewWatchlistActions(repo, ref), sess, opts)
}

// Package catalog serves content details from the local store, falling back to the API.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/cinelog/internal/domain"
	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a shared fetch, which no single caller's ctx controls
const fetchTimeout = 30 * time.Second

// Service orchestrates detail client + store operations.
type Service struct {
	client  domain.DetailRepository
	store   domain.Store
	group   singleflight.Group
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a new catalog service.
func NewService(client domain.DetailRepository, store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, timeout: fetchTimeout, logger: logger}
}

// Detail returns the detail for ref. Concurrent misses for the same ref share
// one request. Cancelling ctx abandons the wait but not the shared request,
// so other callers still get their result.
func (s *Service) Detail(ctx context.Context, ref domain.ContentRef) (*domain.ContentDetail, error) {
	if d, ok := s.store.GetDetail(ref); ok {
		return d, nil
	}

	ch := s.group.DoChan(ref.Key(), func() (any, error) {
		// Another caller may have filled the store while we waited
		if d, ok := s.store.GetDetail(ref); ok {
			return d, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		d, err := s.client.ContentDetail(fetchCtx, ref)
		if err != nil {
			return nil, err
		}
		if err := s.store.SaveDetail(d); err != nil {
			s.logger.Error("failed to save detail", "ref", ref.Key(), "error", err)
		}
		return d, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		s.logger.Error("failed to fetch detail", "ref", ref.Key(), "error", res.Err)
		return nil, res.Err
	}

	s.logger.Debug("fetched detail", "ref", ref.Key(), "shared", res.Shared)
	// Copy so callers never share a pointer
	d := *res.Val.(*domain.ContentDetail)
	return &d, nil
}

// Refresh drops the cached detail and fetches it again
func (s *Service) Refresh(ctx context.Context, ref domain.ContentRef) (*domain.ContentDetail, error) {
	s.Invalidate(ref)
	return s.Detail(ctx, ref)
}

// Invalidate drops one cached detail
func (s *Service) Invalidate(ref domain.ContentRef) {
	s.store.InvalidateDetail(ref)
	s.group.Forget(ref.Key())
}

// InvalidateAll drops every cached detail
func (s *Service) InvalidateAll() {
	s.store.InvalidateDetails()
}

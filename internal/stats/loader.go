package stats

import (
	"context"
	"log/slog"

	"github.com/mmcdole/cinelog/internal/domain"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 6

// Loader resolves details and the user's logs for a list of refs
type Loader struct {
	details     domain.DetailProvider
	logs        domain.LogProvider
	session     domain.Session
	concurrency int
	logger      *slog.Logger
}

// NewLoader creates a loader. Anonymous sessions skip log fetches.
func NewLoader(details domain.DetailProvider, logs domain.LogProvider, sess domain.Session, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		details:     details,
		logs:        logs,
		session:     sess,
		concurrency: defaultConcurrency,
		logger:      logger,
	}
}

// Load fetches every ref concurrently, keeping input order.
// A failed detail fetch gives a nil Detail (zero duration) and a failed log
// fetch gives no logs (unwatched); only cancellation of ctx is returned.
func (l *Loader) Load(ctx context.Context, refs []domain.ContentRef) ([]Item, error) {
	items := make([]Item, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, ref := range refs {
		items[i].Ref = ref
		g.Go(func() error {
			detail, err := l.details.Detail(gctx, ref)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Warn("failed to load detail for stats", "ref", ref.Key(), "error", err)
			} else {
				items[i].Detail = detail
			}

			if l.session.Anonymous() {
				return nil
			}
			logs, err := l.logs.ForContent(gctx, ref)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Warn("failed to load logs for stats", "ref", ref.Key(), "error", err)
				return nil
			}
			items[i].Logs = logs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// Stats loads refs and computes their statistics
func (l *Loader) Stats(ctx context.Context, refs []domain.ContentRef) (domain.ListStats, []Item, error) {
	items, err := l.Load(ctx, refs)
	if err != nil {
		return domain.ListStats{}, nil, err
	}
	return Compute(items), items, nil
}

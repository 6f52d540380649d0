// Package suggest drives search-as-you-type against the suggestion endpoint.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mmcdole/cinelog/internal/debounce"
	"github.com/mmcdole/cinelog/internal/domain"
)

const (
	DefaultDelay    = 300 * time.Millisecond
	DefaultMinChars = 2
	defaultTimeout  = 10 * time.Second
)

// State is what a search box renders
type State struct {
	Term    string
	Results []domain.Suggestion
	Loading bool
	Visible bool
	Err     string
}

// Options configures a Controller. Zero values pick the defaults.
type Options struct {
	Delay     time.Duration
	MinChars  int
	CacheSize int // 0 disables caching
	CacheTTL  time.Duration
	Timeout   time.Duration

	// OnChange is called after every state change, outside the controller lock.
	// Calls may arrive from several goroutines; read State() for the newest value.
	OnChange func(State)
	Logger   *slog.Logger
}

// Controller owns the state of one search box
type Controller struct {
	source   domain.SuggestionSource
	minChars int
	timeout  time.Duration
	onChange func(State)
	logger   *slog.Logger

	debouncer *debounce.Debouncer[string]
	cache     *expirable.LRU[string, []domain.Suggestion]

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	seq    uint64 // generation of the current term; older responses are dropped
	closed bool
}

// New creates a controller reading from source
func New(source domain.SuggestionSource, opts Options) *Controller {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		source:   source,
		minChars: opts.MinChars,
		timeout:  opts.Timeout,
		onChange: opts.OnChange,
		logger:   opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	if opts.CacheSize > 0 {
		c.cache = expirable.NewLRU[string, []domain.Suggestion](opts.CacheSize, nil, opts.CacheTTL)
	}
	c.debouncer = debounce.New(opts.Delay, c.fetch)
	return c
}

func normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// OnTermChange records the typed term and schedules a search when it is long enough.
// Short terms clear the results without touching the network.
func (c *Controller) OnTermChange(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.Term = term
	c.seq++

	if utf8.RuneCountInString(strings.TrimSpace(term)) < c.minChars {
		c.debouncer.Cancel()
		c.state.Results = nil
		c.state.Visible = false
		c.state.Loading = false
		c.state.Err = ""
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot)
		return
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.debouncer.Trigger(term)
	c.notify(snapshot)
}

// fetch runs on the debouncer's goroutine
func (c *Controller) fetch(term string) {
	c.mu.Lock()
	if c.closed || term != c.state.Term {
		// Superseded; the newer term has its own call scheduled
		c.mu.Unlock()
		return
	}
	seq := c.seq
	c.state.Loading = true
	c.state.Visible = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)

	results, err := c.lookup(term)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		// The term moved on; this response belongs to nobody
		c.mu.Unlock()
		c.logger.Debug("dropping stale suggestions", "term", term)
		return
	}
	if err != nil {
		c.state.Results = nil
		c.state.Err = domain.UserMessage(err)
	} else {
		c.state.Results = results
		c.state.Err = ""
	}
	c.state.Loading = false
	snapshot = c.snapshotLocked()
	c.mu.Unlock()

	if err != nil && c.ctx.Err() == nil {
		c.logger.Error("failed to fetch suggestions", "term", term, "error", err)
	}
	c.notify(snapshot)
}

func (c *Controller) lookup(term string) ([]domain.Suggestion, error) {
	key := normalize(term)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	results, err := c.source.Suggest(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.Suggestion{}
	}
	if c.cache != nil {
		c.cache.Add(key, results)
	}
	return results, nil
}

// Select returns the i-th result and resets the box (term, results, visibility).
// What to do with the selection is up to the caller.
func (c *Controller) Select(i int) (domain.Suggestion, bool) {
	c.mu.Lock()
	if c.closed || i < 0 || i >= len(c.state.Results) {
		c.mu.Unlock()
		return domain.Suggestion{}, false
	}
	selected := c.state.Results[i]
	c.seq++
	c.debouncer.Cancel()
	c.state = State{}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	return selected, true
}

// Dismiss hides the results and keeps the term so typing can resume.
// It is the action for a pointer press outside the results.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.closed || !c.state.Visible {
		c.mu.Unlock()
		return
	}
	c.state.Visible = false
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// Reopen shows the results again after a Dismiss, if the term still qualifies
func (c *Controller) Reopen() {
	c.mu.Lock()
	if c.closed || c.state.Visible ||
		utf8.RuneCountInString(strings.TrimSpace(c.state.Term)) < c.minChars ||
		(len(c.state.Results) == 0 && c.state.Err == "" && !c.state.Loading) {
		c.mu.Unlock()
		return
	}
	c.state.Visible = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// DismissListenerActive reports whether outside presses should be routed to Dismiss.
// It is true exactly while the results are visible.
func (c *Controller) DismissListenerActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Visible
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close tears the controller down. Pending searches never fire and
// in-flight responses are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.debouncer.Stop()
	c.cancel()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Results != nil {
		s.Results = append([]domain.Suggestion(nil), s.Results...)
	}
	return s
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

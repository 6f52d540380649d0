// Package toggle implements optimistic on/off actions (like, watchlist) with
// rollback on failure and reconciliation against server counts.
package toggle

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmcdole/cinelog/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Toggle after Close
var ErrClosed = errors.New("toggle is closed")

// Actions performs the network side of a toggle.
// Activate and Deactivate return the authoritative count when the server sends one.
type Actions interface {
	Status(ctx context.Context) (bool, error)
	Activate(ctx context.Context) (*int, error)
	Deactivate(ctx context.Context) (*int, error)
}

// Counter fetches the tally shown next to a toggle
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// State is what a toggle control renders
type State struct {
	Active        bool
	Count         int
	StatusLoading bool
	ActionLoading bool
	Err           error // last failure, cleared when the next action starts
}

// Busy reports whether a toggle would be dropped right now
func (s State) Busy() bool {
	return s.StatusLoading || s.ActionLoading
}

// Options configures a Controller
type Options struct {
	// InitialCount is shown until a count fetch succeeds, and always for anonymous sessions
	InitialCount int
	// Counter fetches the count on Init. Setting it implies TrackCount.
	Counter Counter
	// TrackCount applies optimistic +1/-1 to Count on toggle
	TrackCount bool

	// OnChange is called after every state change, outside the controller lock
	OnChange func(State)
	Logger   *slog.Logger
	// Name labels log lines (e.g., "like:42")
	Name string
}

// Controller is the state machine behind one toggle control.
// Each rendered resource owns its own instance.
type Controller struct {
	actions    Actions
	counter    Counter
	trackCount bool
	session    domain.Session
	onChange   func(State)
	logger     *slog.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

// New creates a controller. Call Init to load the personalized state.
func New(actions Actions, sess domain.Session, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Name != "" {
		logger = logger.With("toggle", opts.Name)
	}
	return &Controller{
		actions:    actions,
		counter:    opts.Counter,
		trackCount: opts.TrackCount || opts.Counter != nil,
		session:    sess,
		onChange:   opts.OnChange,
		logger:     logger,
		state:      State{Count: max(0, opts.InitialCount)},
	}
}

// Init fetches status and count concurrently.
// Anonymous sessions make no call: Active stays false and Count keeps its initial value.
// A failed fetch leaves that field at its default and is reported in State.Err.
func (c *Controller) Init(ctx context.Context) error {
	if c.session.Anonymous() {
		c.update(func(s *State) { s.Active = false })
		return nil
	}

	if !c.update(func(s *State) { s.StatusLoading = true }) {
		return ErrClosed
	}

	var (
		g                   errgroup.Group
		active              bool
		count               int
		statusErr, countErr error
	)
	g.Go(func() error {
		active, statusErr = c.actions.Status(ctx)
		return statusErr
	})
	if c.counter != nil {
		g.Go(func() error {
			count, countErr = c.counter.Count(ctx)
			return countErr
		})
	}
	err := g.Wait()

	applied := c.update(func(s *State) {
		s.StatusLoading = false
		if statusErr == nil {
			s.Active = active
		}
		if c.counter != nil && countErr == nil {
			s.Count = max(0, count)
		}
		s.Err = err
	})
	if !applied {
		return ErrClosed
	}

	if err != nil {
		c.logger.Error("failed to load toggle state", "statusError", statusErr, "countError", countErr)
	}
	return err
}

// Toggle flips the state optimistically, then calls the server.
// On failure the previous state is restored exactly. A toggle while another
// one (or Init) is in flight returns ErrBusy without side effects.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.state.Busy():
		c.mu.Unlock()
		return domain.ErrBusy
	case c.session.Anonymous():
		c.state.Err = domain.ErrAnonymous
		snapshot := c.state
		c.mu.Unlock()
		c.notify(snapshot)
		return domain.ErrAnonymous
	}

	prevActive, prevCount := c.state.Active, c.state.Count
	c.state.Active = !prevActive
	if c.trackCount {
		if prevActive {
			c.state.Count = max(0, prevCount-1)
		} else {
			c.state.Count = prevCount + 1
		}
	}
	c.state.ActionLoading = true
	c.state.Err = nil
	snapshot := c.state
	c.mu.Unlock()
	c.notify(snapshot)

	var (
		serverCount *int
		err         error
	)
	if prevActive {
		serverCount, err = c.actions.Deactivate(ctx)
	} else {
		serverCount, err = c.actions.Activate(ctx)
	}

	c.mu.Lock()
	c.state.ActionLoading = false
	if c.closed {
		// Unmounted meanwhile; nobody renders this state
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.state.Active = prevActive
		c.state.Count = prevCount
		c.state.Err = err
	} else if serverCount != nil && c.trackCount {
		c.state.Count = max(0, *serverCount)
	}
	snapshot = c.state
	c.mu.Unlock()
	c.notify(snapshot)

	if err != nil {
		c.logger.Error("failed to toggle", "wasActive", prevActive, "error", err)
	}
	return err
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close marks the controller unmounted; late responses are discarded
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// update applies fn under the lock and notifies. It returns false once closed.
func (c *Controller) update(fn func(*State)) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	fn(&c.state)
	snapshot := c.state
	c.mu.Unlock()
	c.notify(snapshot)
	return true
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

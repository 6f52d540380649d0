package toggle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/cinelog/internal/adapter"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	user   = domain.Session{Token: "tok", Username: "neo"}
	anon   = domain.Session{}
	errNet = errors.New("connection reset")
)

// fakeActions answers from fields; release gates each action call when set
type fakeActions struct {
	status    bool
	statusErr error
	count     int
	countErr  error

	actionCount *int
	actionErr   error
	release     chan struct{}

	activations   atomic.Int32
	deactivations atomic.Int32
	statusCalls   atomic.Int32
}

func (f *fakeActions) Status(ctx context.Context) (bool, error) {
	f.statusCalls.Add(1)
	return f.status, f.statusErr
}

func (f *fakeActions) Count(ctx context.Context) (int, error) {
	return f.count, f.countErr
}

func (f *fakeActions) wait() {
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeActions) Activate(ctx context.Context) (*int, error) {
	f.activations.Add(1)
	f.wait()
	return f.actionCount, f.actionErr
}

func (f *fakeActions) Deactivate(ctx context.Context) (*int, error) {
	f.deactivations.Add(1)
	f.wait()
	return f.actionCount, f.actionErr
}

func intPtr(v int) *int { return &v }

func newCounted(t *testing.T, f *fakeActions, sess domain.Session, initial int) *Controller {
	t.Helper()
	return New(f, sess, Options{Counter: f, InitialCount: initial, Logger: adapter.NullLogger()})
}

func TestInit_LoadsStatusAndCount(t *testing.T) {
	f := &fakeActions{status: true, count: 7}
	c := newCounted(t, f, user, 0)

	require.NoError(t, c.Init(context.Background()))
	s := c.State()
	assert.True(t, s.Active)
	assert.Equal(t, 7, s.Count)
	assert.False(t, s.StatusLoading)
}

func TestInit_AnonymousMakesNoCalls(t *testing.T) {
	f := &fakeActions{status: true, count: 7}
	c := newCounted(t, f, anon, 3)

	require.NoError(t, c.Init(context.Background()))
	s := c.State()
	assert.False(t, s.Active)
	assert.Equal(t, 3, s.Count)
	assert.Zero(t, f.statusCalls.Load())
}

func TestInit_StatusFailureKeepsDefaults(t *testing.T) {
	f := &fakeActions{statusErr: errNet, count: 5}
	c := newCounted(t, f, user, 1)

	err := c.Init(context.Background())
	assert.ErrorIs(t, err, errNet)

	s := c.State()
	assert.False(t, s.Active)
	assert.Equal(t, 5, s.Count, "count fetch is independent of the status fetch")
	assert.ErrorIs(t, s.Err, errNet)
	assert.False(t, s.StatusLoading)
}

func TestToggle_OptimisticThenServerCountWins(t *testing.T) {
	f := &fakeActions{count: 4, actionCount: intPtr(9), release: make(chan struct{})}
	c := newCounted(t, f, user, 0)
	require.NoError(t, c.Init(context.Background()))

	done := make(chan error, 1)
	go func() { done <- c.Toggle(context.Background()) }()

	// Optimistic state is visible before the server answers
	require.Eventually(t, func() bool { return c.State().ActionLoading }, time.Second, time.Millisecond)
	s := c.State()
	assert.True(t, s.Active)
	assert.Equal(t, 5, s.Count)

	close(f.release)
	require.NoError(t, <-done)

	s = c.State()
	assert.True(t, s.Active)
	assert.Equal(t, 9, s.Count)
	assert.False(t, s.ActionLoading)
}

func TestToggle_RollbackRestoresExactly(t *testing.T) {
	for _, prevActive := range []bool{false, true} {
		t.Run(map[bool]string{false: "from inactive", true: "from active"}[prevActive], func(t *testing.T) {
			f := &fakeActions{status: prevActive, count: 4, actionErr: errNet}
			c := newCounted(t, f, user, 0)
			require.NoError(t, c.Init(context.Background()))
			before := c.State()

			err := c.Toggle(context.Background())
			assert.ErrorIs(t, err, errNet)

			after := c.State()
			assert.Equal(t, before.Active, after.Active)
			assert.Equal(t, before.Count, after.Count)
			assert.ErrorIs(t, after.Err, errNet)
			assert.False(t, after.ActionLoading)
		})
	}
}

func TestToggle_AuthFailureRollsBack(t *testing.T) {
	f := &fakeActions{actionErr: domain.ErrAuthFailed}
	c := newCounted(t, f, user, 2)
	require.NoError(t, c.Init(context.Background()))

	assert.ErrorIs(t, c.Toggle(context.Background()), domain.ErrAuthFailed)
	assert.False(t, c.State().Active)
}

func TestToggle_SecondClickWhileBusyIsDropped(t *testing.T) {
	f := &fakeActions{count: 1, release: make(chan struct{})}
	c := newCounted(t, f, user, 0)
	require.NoError(t, c.Init(context.Background()))

	done := make(chan error, 1)
	go func() { done <- c.Toggle(context.Background()) }()
	require.Eventually(t, func() bool { return c.State().ActionLoading }, time.Second, time.Millisecond)
	inFlight := c.State()

	assert.ErrorIs(t, c.Toggle(context.Background()), domain.ErrBusy)
	assert.Equal(t, inFlight, c.State(), "dropped click changes nothing")

	close(f.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), f.activations.Load())
	assert.Zero(t, f.deactivations.Load())
}

func TestToggle_AnonymousRefusedWithoutCall(t *testing.T) {
	f := &fakeActions{}
	c := newCounted(t, f, anon, 3)
	require.NoError(t, c.Init(context.Background()))

	assert.ErrorIs(t, c.Toggle(context.Background()), domain.ErrAnonymous)
	s := c.State()
	assert.False(t, s.Active)
	assert.Equal(t, 3, s.Count)
	assert.ErrorIs(t, s.Err, domain.ErrAnonymous)
	assert.Zero(t, f.activations.Load())
}

func TestToggle_CountNeverNegative(t *testing.T) {
	// Server says active but reports no likes: optimistic decrement clamps at 0
	f := &fakeActions{status: true, count: 0}
	c := newCounted(t, f, user, 0)
	require.NoError(t, c.Init(context.Background()))

	for i := 0; i < 6; i++ {
		_ = c.Toggle(context.Background())
		assert.GreaterOrEqual(t, c.State().Count, 0)
	}

	f.actionCount = intPtr(-3)
	_ = c.Toggle(context.Background())
	assert.Equal(t, 0, c.State().Count, "server count is clamped too")
}

func TestToggle_WithoutCountLeavesCountAlone(t *testing.T) {
	f := &fakeActions{actionCount: intPtr(50)}
	c := New(f, user, Options{InitialCount: 2, Logger: adapter.NullLogger()})
	require.NoError(t, c.Init(context.Background()))

	require.NoError(t, c.Toggle(context.Background()))
	s := c.State()
	assert.True(t, s.Active)
	assert.Equal(t, 2, s.Count)
}

func TestToggle_LateResponseAfterCloseDiscarded(t *testing.T) {
	f := &fakeActions{release: make(chan struct{})}
	var notified atomic.Int32
	c := New(f, user, Options{Logger: adapter.NullLogger(), OnChange: func(State) { notified.Add(1) }})

	done := make(chan error, 1)
	go func() { done <- c.Toggle(context.Background()) }()
	require.Eventually(t, func() bool { return f.activations.Load() == 1 }, time.Second, time.Millisecond)

	c.Close()
	before := notified.Load()
	close(f.release)
	require.NoError(t, <-done)

	assert.Equal(t, before, notified.Load(), "no notification after close")
	assert.ErrorIs(t, c.Toggle(context.Background()), ErrClosed)
}

func TestToggle_NextActionClearsError(t *testing.T) {
	f := &fakeActions{actionErr: errNet}
	c := New(f, user, Options{Logger: adapter.NullLogger()})

	require.Error(t, c.Toggle(context.Background()))
	require.Error(t, c.State().Err)

	f.actionErr = nil
	require.NoError(t, c.Toggle(context.Background()))
	assert.NoError(t, c.State().Err)
}

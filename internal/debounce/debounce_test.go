package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) fn(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer_CollapsesBurstToLastArgument(t *testing.T) {
	rec := newRecorder()
	d := New(30*time.Millisecond, rec.fn)

	for _, term := range []string{"m", "ma", "mat", "matr", "matrix"} {
		d.Trigger(term)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}

	// Nothing else may arrive afterwards
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"matrix"}, rec.snapshot())
	assert.False(t, d.Pending())
}

func TestDebouncer_StopBeforeDelayFiresNothing(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.fn)

	d.Trigger("a")
	d.Trigger("b")
	require.True(t, d.Pending())
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
	assert.False(t, d.Pending())

	// Triggers after teardown are ignored
	d.Trigger("c")
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestDebouncer_CancelKeepsItUsable(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.fn)

	d.Trigger("dropped")
	d.Cancel()
	d.Trigger("kept")

	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, []string{"kept"}, rec.snapshot())
}

func TestDebouncer_SeparateQuietPeriodsFireSeparately(t *testing.T) {
	rec := newRecorder()
	d := New(10*time.Millisecond, rec.fn)

	d.Trigger("first")
	<-rec.fired
	d.Trigger("second")
	<-rec.fired

	assert.Equal(t, []string{"first", "second"}, rec.snapshot())
}

func TestDebouncer_StopDuringRunningCall(t *testing.T) {
	started := make(chan string, 4)
	release := make(chan struct{})
	d := New(50*time.Millisecond, func(s string) {
		started <- s
		<-release
	})

	d.Trigger("a")
	select {
	case s := <-started:
		require.Equal(t, "a", s)
	case <-time.After(time.Second):
		t.Fatal("first call never started")
	}

	// Scheduled while "a" is still running
	d.Trigger("b")

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop waited for the running call")
	}

	close(release)
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, started, "the pending call must not fire after Stop")
}

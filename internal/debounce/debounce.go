// Package debounce collapses bursts of calls into one delayed call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn with the argument of the last Trigger once delay has
// passed without another Trigger.
//
// A call that has already started runs to completion; Cancel and Stop only
// prevent calls that have not fired yet.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64 // bumped on every Trigger/Cancel; a fired timer checks it
	stopped bool
}

// New returns a debouncer for fn. A non-positive delay fires on the next tick.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger schedules fn(arg), replacing any pending call
func (d *Debouncer[T]) Trigger(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, arg) })
}

func (d *Debouncer[T]) fire(seq uint64, arg T) {
	d.mu.Lock()
	// A Stop that lost the race with the timer still wins here
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.fn(arg)

	d.mu.Lock()
	if seq == d.seq {
		d.timer = nil
	}
	d.mu.Unlock()
}

// Cancel drops the pending call, if any. The debouncer stays usable.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer[T]) cancelLocked() {
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels the pending call and disables the debouncer for good.
// It is the teardown hook: no pending call fires after Stop, and later
// Triggers are ignored. Stop does not wait for a call that is already
// running; callers that need that must guard fn themselves.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether a call is scheduled or still running
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

package dashboard

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single call that runs after
// the quiet period has passed without a new trigger. Only the last function
// passed to Trigger runs.
//
// Stop cancels the pending call and disables the debouncer, which is what a
// page unmount needs. Wait blocks until a call that already started returns.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	seq     uint64
	stopped bool
	running sync.WaitGroup
}

// NewDebouncer builds a debouncer with the given quiet period.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Trigger schedules fn, replacing any call still waiting for the quiet period.
// It never blocks on fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.cancelLocked()
	d.seq++
	seq := d.seq
	d.pending = fn
	d.running.Add(1)
	d.timer = time.AfterFunc(d.quiet, func() {
		defer d.running.Done()
		d.fire(seq)
	})
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

// cancelLocked stops the armed timer. A timer stopped before firing will
// never run its callback, so its Add is balanced here.
func (d *Debouncer) cancelLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.running.Done()
	}
	d.timer = nil
	d.pending = nil
}

// Flush runs the pending call immediately on the caller's goroutine. It
// returns false when nothing was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	if d.stopped || fn == nil {
		d.mu.Unlock()
		return false
	}
	d.cancelLocked()
	d.seq++
	d.mu.Unlock()
	fn()
	return true
}

// Pending reports whether a call is waiting for the quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels the pending call; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Wait blocks until no timer callback is in flight.
func (d *Debouncer) Wait() {
	d.running.Wait()
}

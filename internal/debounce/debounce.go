package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a query is committed.
const DefaultDelay = 400 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// Debouncer delivers the last value of a burst of triggers once the input
// has been quiet for the configured delay. Commit runs on the clock's
// goroutine, never while the debouncer's lock is held.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	commit  func(string)
	clock   Clock
	timer   Timer
	pending *Handle
	gen     uint64
	closed  bool
}

// New returns a debouncer that calls commit with the settled value.
// A negative delay is treated as zero.
func New(delay time.Duration, commit func(string), opts ...Option) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	d := &Debouncer{
		delay:  delay,
		commit: commit,
		clock:  realClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle identifies one scheduled commit.
type Handle struct {
	d     *Debouncer
	gen   uint64
	value string
}

// Value is the value this handle will commit.
func (h *Handle) Value() string {
	return h.value
}

// Stop cancels the commit if it is still the pending one. It reports
// whether anything was cancelled.
func (h *Handle) Stop() bool {
	if h == nil || h.d == nil {
		return false
	}
	return h.d.stop(h.gen)
}

// Trigger replaces any pending value with v and restarts the quiet period.
// After Close it returns an inert handle.
func (d *Debouncer) Trigger(v string) *Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &Handle{value: v}
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	h := &Handle{d: d, gen: gen, value: v}
	d.pending = h
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
	return h
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that was stopped too late to prevent its callback still
	// arrives here; the generation check drops it.
	if d.closed || gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	v := d.pending.value
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if d.commit != nil {
		d.commit(v)
	}
}

func (d *Debouncer) stop(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil || gen != d.gen {
		return false
	}
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	if d.pending == nil {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = nil
	d.pending = nil
	d.gen++
	return true
}

// Cancel drops the pending value, if any.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Pending returns the value waiting to be committed.
func (d *Debouncer) Pending() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return "", false
	}
	return d.pending.value, true
}

// Take cancels the pending commit and returns its value, so the caller can
// apply it immediately instead of waiting out the quiet period.
func (d *Debouncer) Take() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.pending == nil {
		return "", false
	}
	v := d.pending.value
	d.cancelLocked()
	return v, true
}

// Close cancels any pending commit. Later triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.closed = true
}

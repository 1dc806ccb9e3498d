// Package debounce turns a rapidly changing value into a committed value
// that is only delivered once the input has been quiet for a fixed delay.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used when New is given a non-positive delay.
const DefaultDelay = 900 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*options)

type options struct {
	after AfterFunc
}

// WithAfterFunc replaces the timer source, mainly so tests can drive time.
func WithAfterFunc(after AfterFunc) Option {
	return func(o *options) {
		if after != nil {
			o.after = after
		}
	}
}

// Debouncer delivers the last pushed value to fn once delay has elapsed
// without another Push. At most one commit is pending at any time.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	after   AfterFunc
	timer   Timer
	gen     uint64
	value   T
	pending bool
}

func New[T any](delay time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	o := options{after: realAfterFunc}
	for _, opt := range opts {
		opt(&o)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{
		delay: delay,
		fn:    fn,
		after: o.after,
	}
}

// Delay returns the quiet period.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Push records v as the latest value and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
	d.value = v
	d.pending = true
	gen := d.gen
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

// Stop cancels a pending commit. The debouncer stays usable.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Flush delivers a pending commit immediately. It reports whether anything
// was delivered.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	v := d.value
	d.cancelLocked()
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Pending reports whether a commit is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// cancelLocked invalidates the current generation so a timer that already
// started running cannot deliver a superseded value.
func (d *Debouncer[T]) cancelLocked() {
	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

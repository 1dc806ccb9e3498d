package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock runs scheduled callbacks only when Advance moves past their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Duration
	f        func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.deadline <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func newTestDebouncer(delay time.Duration) (*Debouncer[string], *fakeClock, *recorder) {
	clock := &fakeClock{}
	rec := &recorder{}
	return New(delay, rec.record, WithAfterFunc(clock.AfterFunc)), clock, rec
}

func TestBurstEmitsOnlyFinalValueOnce(t *testing.T) {
	d, clock, rec := newTestDebouncer(900 * time.Millisecond)

	for _, v := range []string{"b", "ba", "bat", "batm", "batma", "batman"} {
		d.Push(v)
		clock.Advance(200 * time.Millisecond)
		assert.Empty(t, rec.got(), "nothing may be committed inside the burst")
		assert.Equal(t, 1, clock.active(), "at most one pending timer")
	}

	// 200ms already elapsed since the last push.
	clock.Advance(699 * time.Millisecond)
	assert.Empty(t, rec.got())

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, []string{"batman"}, rec.got())

	clock.Advance(10 * time.Second)
	assert.Equal(t, []string{"batman"}, rec.got(), "value must be delivered exactly once")
	assert.False(t, d.Pending())
}

func TestSeparatedInputsEachCommit(t *testing.T) {
	d, clock, rec := newTestDebouncer(100 * time.Millisecond)

	d.Push("a")
	clock.Advance(100 * time.Millisecond)
	d.Push("b")
	clock.Advance(100 * time.Millisecond)

	assert.Equal(t, []string{"a", "b"}, rec.got())
}

func TestStopCancelsPendingCommit(t *testing.T) {
	d, clock, rec := newTestDebouncer(100 * time.Millisecond)

	d.Push("x")
	require.True(t, d.Pending())
	d.Stop()
	assert.False(t, d.Pending())

	clock.Advance(time.Second)
	assert.Empty(t, rec.got())

	d.Push("y")
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"y"}, rec.got(), "debouncer stays usable after Stop")
}

func TestFlushDeliversImmediately(t *testing.T) {
	d, clock, rec := newTestDebouncer(time.Second)

	assert.False(t, d.Flush(), "nothing to flush")

	d.Push("dune")
	assert.True(t, d.Flush())
	assert.Equal(t, []string{"dune"}, rec.got())

	clock.Advance(2 * time.Second)
	assert.Equal(t, []string{"dune"}, rec.got(), "flushed value is not delivered again")
}

func TestStaleTimerCallbackIsDiscarded(t *testing.T) {
	var callbacks []func()
	after := func(_ time.Duration, f func()) Timer {
		callbacks = append(callbacks, f)
		// Stop never wins the race here, mimicking a timer already firing.
		return stubTimer{}
	}
	rec := &recorder{}
	d := New(time.Second, rec.record, WithAfterFunc(after))

	d.Push("old")
	d.Push("new")
	require.Len(t, callbacks, 2)

	callbacks[0]()
	assert.Empty(t, rec.got(), "superseded callback must not deliver")

	callbacks[1]()
	assert.Equal(t, []string{"new"}, rec.got())
}

type stubTimer struct{}

func (stubTimer) Stop() bool { return false }

func TestDefaultDelay(t *testing.T) {
	d := New(0, func(string) {})
	assert.Equal(t, DefaultDelay, d.Delay())
}

func TestRealTimer(t *testing.T) {
	done := make(chan int, 1)
	d := New(20*time.Millisecond, func(v int) { done <- v })

	d.Push(1)
	d.Push(2)
	d.Push(3)

	select {
	case v := <-done:
		assert.Equal(t, 3, v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced value was never delivered")
	}
}

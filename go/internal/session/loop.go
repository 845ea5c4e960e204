package session

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrLoopStopped is returned by Call once Run has returned
var ErrLoopStopped = errors.New("event loop stopped")

// Scheduler queues callbacks onto the event loop.
// Timers must only be created and stopped from loop callbacks.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) *Timer
	Every(d time.Duration, fn func()) *Timer
}

// Loop is the single logical event loop every session handler runs on.
// Posted work and timer callbacks are serialized; none of them preempt each other.
type Loop struct {
	clock  clockwork.Clock
	tasks  chan func()
	timers timerHeap
	seq    uint64

	// Unbounded queue for Dispatch
	inboxMu sync.Mutex
	inbox   []func()
	wakeup  chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates an event loop driven by clock.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
func NewLoop(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock: clock,
		tasks:  make(chan func(), 256),
		wakeup: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Now returns the loop clock's current time
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post enqueues fn to run on the loop. It is safe to call from any goroutine
// and reports false if the loop has already stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Dispatch enqueues fn to run on the loop without ever blocking the caller.
// Goroutines the loop itself waits on (a UI program receiving view updates)
// must use Dispatch instead of Post. Ordering relative to Post is not kept.
func (l *Loop) Dispatch(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	l.inboxMu.Lock()
	l.inbox = append(l.inbox, fn)
	l.inboxMu.Unlock()

	select {
	case l.wakeup <- struct{}{}:
	default:
	}
	return true
}

// drainInbox runs every dispatched callback queued so far
func (l *Loop) drainInbox() bool {
	l.inboxMu.Lock()
	batch := l.inbox
	l.inbox = nil
	l.inboxMu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch) > 0
}

// Call runs fn on the loop and waits for it to finish
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// After schedules a one-shot callback
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	return l.schedule(d, 0, fn)
}

// Every schedules a repeating callback; the first run is one interval from now
func (l *Loop) Every(d time.Duration, fn func()) *Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return l.schedule(d, d, fn)
}

func (l *Loop) schedule(d, interval time.Duration, fn func()) *Timer {
	t := &Timer{
		loop:     l,
		deadline: l.clock.Now().Add(d),
		interval: interval,
		fn:       fn,
		index:    -1,
	}
	l.push(t)
	return t
}

func (l *Loop) push(t *Timer) {
	l.seq++
	t.seq = l.seq
	heap.Push(&l.timers, t)
}

// Run processes posted work and timers until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.done) })

	for {
		for l.fireNext(l.clock.Now()) {
		}

		// Sleep until the earliest timer is due or new work arrives
		var wake clockwork.Timer
		var wakeCh <-chan time.Time
		if len(l.timers) > 0 {
			wake = l.clock.NewTimer(l.timers[0].deadline.Sub(l.clock.Now()))
			wakeCh = wake.Chan()
		}

		select {
		case <-ctx.Done():
			if wake != nil {
				stopAndDrainTimer(wake)
			}
			return nil
		case fn := <-l.tasks:
			fn()
		case <-l.wakeup:
			l.drainInbox()
		case <-wakeCh:
		}

		if wake != nil {
			stopAndDrainTimer(wake)
		}
	}
}

// RunPending drains posted work and fires every timer due at the current
// clock time, then returns. It must not be used concurrently with Run.
func (l *Loop) RunPending() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
			continue
		default:
		}
		if l.drainInbox() {
			continue
		}

		if !l.fireNext(l.clock.Now()) {
			return
		}
	}
}

// fireNext runs the earliest timer if it is due at now
func (l *Loop) fireNext(now time.Time) bool {
	if len(l.timers) == 0 {
		return false
	}
	t := l.timers[0]
	if t.deadline.After(now) {
		return false
	}

	heap.Pop(&l.timers)
	if t.interval > 0 {
		// Requeue before running so the callback can stop its own timer
		t.deadline = t.deadline.Add(t.interval)
		l.push(t)
	} else {
		t.stopped = true
	}

	t.fn()
	return true
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// Timer is a handle to a callback scheduled on a Loop
type Timer struct {
	loop     *Loop
	deadline time.Time
	interval time.Duration
	fn       func()
	seq      uint64
	index    int
	stopped  bool
}

// Stop cancels the timer. It is safe on nil and on already stopped timers.
func (t *Timer) Stop() {
	if t == nil || t.stopped {
		return
	}
	t.stopped = true
	if t.index >= 0 {
		heap.Remove(&t.loop.timers, t.index)
	}
}

// Active reports whether the timer can still fire
func (t *Timer) Active() bool {
	return t != nil && !t.stopped
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

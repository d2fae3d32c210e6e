// Package clock provides the deferred-callback capability the game controller
// uses for its phase and feedback timers.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Handle is a scheduled callback that can be cancelled.
// Stop reports whether the call prevented the callback from running.
type Handle interface {
	Stop() bool
}

// Scheduler runs fn once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

// Real schedules callbacks on the runtime timer heap. Callbacks run on their
// own goroutine, so callers must synchronise any state they touch.
type Real struct{}

// AfterFunc implements Scheduler using time.AfterFunc.
func (Real) AfterFunc(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

// Compile-time checks.
var (
	_ Scheduler = Real{}
	_ Scheduler = (*Manual)(nil)
)

// Manual is a Scheduler driven by explicit calls to Advance. Due callbacks
// run synchronously on the goroutine calling Advance, in deadline order
// (ties broken by scheduling order). Callbacks may schedule further timers;
// those fire within the same Advance call if they fall due before its end.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	when    time.Duration
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, when: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every callback that falls due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.popDueLocked(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = t.when
		m.mu.Unlock()

		// Run outside the lock: callbacks commonly schedule follow-up timers.
		t.fn()
	}
}

// Now returns the elapsed manual time since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of scheduled callbacks that have neither fired
// nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// popDueLocked removes and returns the earliest timer due at or before
// target. Must be called with m.mu held.
func (m *Manual) popDueLocked(target time.Duration) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].when != m.timers[j].when {
			return m.timers[i].when < m.timers[j].when
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	t := m.timers[0]
	if t.when > target {
		return nil
	}
	m.timers = m.timers[1:]
	t.fired = true
	return t
}

// removeLocked drops t from the pending list. Must be called with m.mu held.
func (m *Manual) removeLocked(t *manualTimer) {
	kept := m.timers[:0]
	for _, other := range m.timers {
		if other != t {
			kept = append(kept, other)
		}
	}
	m.timers = kept
}

// Stop implements Handle.
func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.m.removeLocked(t)
	return true
}

package transport

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Timers creates wall-clock timers. The preview coordinator takes one so
// tests can drive time by hand.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// WallTimers uses the runtime timers.
type WallTimers struct{}

// AfterFunc wraps time.AfterFunc.
func (WallTimers) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualTime is a TimeSource advanced explicitly.
type ManualTime struct {
	mu  sync.Mutex
	now float64
}

// Now returns the current manual time.
func (m *ManualTime) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the time to t.
func (m *ManualTime) Set(t float64) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the time forward by d seconds.
func (m *ManualTime) Advance(d float64) {
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}

// ManualTimers is a Timers implementation whose callbacks run only when
// Advance passes their deadline.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*manualTimer
}

type manualTimer struct {
	owner    *ManualTimers
	deadline time.Duration
	f        func()
	stopped  bool
	fired    bool
}

// AfterFunc registers f to run d after the current manual time.
func (m *ManualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{owner: m, deadline: m.now + d, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs every timer that came due, in
// deadline order, without holding the lock.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*manualTimer
	kept := m.pending[:0]
	for _, t := range m.pending {
		switch {
		case t.stopped:
		case t.deadline <= m.now:
			due = append(due, t)
		default:
			kept = append(kept, t)
		}
	}
	m.pending = kept
	m.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline < due[j].deadline })
	for _, t := range due {
		m.mu.Lock()
		run := !t.stopped
		t.fired = true
		m.mu.Unlock()
		if run {
			t.f()
		}
	}
}

// Active returns the number of timers that are neither stopped nor fired.
func (m *ManualTimers) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

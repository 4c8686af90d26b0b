// Package transport schedules control events against the render clock.
//
// A Clock is an explicit value owned by the composition root. Events are
// "fire at time T" requests; Cancel drops every pending request at or after a
// time so that stale schedules never fire after a mode change.
package transport

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// TimeSource reports the current time in seconds. The live graph is the time
// source in production.
type TimeSource interface {
	Now() float64
}

// State is the run state of a Clock.
type State int

const (
	Stopped State = iota
	Started
)

func (s State) String() string {
	if s == Started {
		return "started"
	}
	return "stopped"
}

// EventID identifies a scheduled event.
type EventID uint64

// Callback receives the scheduled time of the event being fired.
type Callback func(at float64)

type event struct {
	id       EventID
	at       float64
	seq      uint64
	fn       Callback
	interval func() float64
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*event)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Clock is a transport with a time-ordered event queue. Events fire only
// while the clock is started.
type Clock struct {
	src TimeSource

	mu     sync.Mutex
	queue  eventQueue
	nextID EventID
	seq    uint64
	state  State
}

// NewClock creates a stopped clock reading time from src.
func NewClock(src TimeSource) *Clock {
	return &Clock{src: src}
}

// Now returns the current time of the underlying source.
func (c *Clock) Now() float64 {
	return c.src.Now()
}

// Schedule fires fn once at time at.
func (c *Clock) Schedule(at float64, fn Callback) EventID {
	return c.push(at, fn, nil)
}

// ScheduleRepeat fires fn at start and then every interval() seconds. The
// interval is re-read after every firing so it can change while running.
// Non-positive intervals fall back to one second.
func (c *Clock) ScheduleRepeat(start float64, interval func() float64, fn Callback) EventID {
	return c.push(start, fn, interval)
}

func (c *Clock) push(at float64, fn Callback, interval func() float64) EventID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.seq++
	heap.Push(&c.queue, &event{id: c.nextID, at: at, seq: c.seq, fn: fn, interval: interval})
	return c.nextID
}

// Clear removes the event with the given id.
func (c *Clock) Clear(id EventID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.queue {
		if e.id == id {
			heap.Remove(&c.queue, i)
			return
		}
	}
}

// Cancel removes every pending event scheduled at or after the given time.
func (c *Clock) Cancel(after float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.queue[:0]
	for _, e := range c.queue {
		if e.at < after {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(c.queue); i++ {
		c.queue[i] = nil
	}
	c.queue = kept
	heap.Init(&c.queue)
}

// Pending returns the number of queued events.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Start lets due events fire.
func (c *Clock) Start() {
	c.mu.Lock()
	c.state = Started
	c.mu.Unlock()
}

// Stop halts event delivery. Queued events stay queued.
func (c *Clock) Stop() {
	c.mu.Lock()
	c.state = Stopped
	c.mu.Unlock()
}

// State returns the run state.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tick fires every due event and returns how many fired. Events are popped
// one at a time and invoked without the lock held, so a callback may
// schedule, clear, cancel or stop, and that affects the remaining events.
func (c *Clock) Tick() int {
	fired := 0
	for {
		e, ok := c.popDue()
		if !ok {
			return fired
		}
		e.fn(e.at)
		fired++
	}
}

func (c *Clock) popDue() (event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Started || len(c.queue) == 0 || c.queue[0].at > c.src.Now() {
		return event{}, false
	}
	e := heap.Pop(&c.queue).(*event)
	fired := *e
	if e.interval != nil {
		step := e.interval()
		if step <= 0 {
			step = 1
		}
		c.seq++
		e.at += step
		e.seq = c.seq
		heap.Push(&c.queue, e)
	}
	return fired, true
}

// Run calls Tick every period until ctx is done.
func (c *Clock) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Tick()
		}
	}
}

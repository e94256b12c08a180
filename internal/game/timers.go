package game

import (
	"sort"
	"time"
)

// Clock is the simulation clock. It only moves when the session steps.
type Clock struct {
	Tick uint64
	Step time.Duration
}

// NewClock creates a clock advancing tickRate times per simulated second
func NewClock(tickRate int) Clock {
	if tickRate <= 0 {
		tickRate = TickRate
	}
	return Clock{Step: time.Second / time.Duration(tickRate)}
}

// Now returns the simulated time elapsed since tick zero
func (c Clock) Now() time.Duration {
	return time.Duration(c.Tick) * c.Step
}

// TicksFor converts a duration into the nearest whole number of ticks. Any
// positive duration lasts at least one tick.
func (c Clock) TicksFor(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return max(uint64((d+c.Step/2)/c.Step), 1)
}

// TimerID identifies a scheduled callback
type TimerID uint64

type timer struct {
	id  TimerID
	due time.Duration
	fn  func()
}

// Timers is the session-owned delayed callback facility. Callbacks run inside
// Advance, on the simulation goroutine, never concurrently with a tick.
type Timers struct {
	nextID  TimerID
	pending map[TimerID]*timer
}

// NewTimers creates an empty timer set
func NewTimers() *Timers {
	return &Timers{pending: make(map[TimerID]*timer)}
}

// At schedules fn to run once the clock reaches due
func (t *Timers) At(due time.Duration, fn func()) TimerID {
	t.nextID++
	t.pending[t.nextID] = &timer{id: t.nextID, due: due, fn: fn}
	return t.nextID
}

// Cancel drops a pending callback. Unknown or already fired IDs are ignored.
func (t *Timers) Cancel(id TimerID) {
	delete(t.pending, id)
}

// CancelAll drops every pending callback
func (t *Timers) CancelAll() {
	clear(t.pending)
}

// Len returns the number of pending callbacks
func (t *Timers) Len() int {
	return len(t.pending)
}

// Advance runs every callback due at or before now, in due order.
// Callbacks scheduled from inside a callback run on a later Advance.
func (t *Timers) Advance(now time.Duration) {
	var due []*timer
	for _, tm := range t.pending {
		if tm.due <= now {
			due = append(due, tm)
		}
	}
	if len(due) == 0 {
		return
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].due == due[j].due {
			return due[i].id < due[j].id
		}
		return due[i].due < due[j].due
	})

	for _, tm := range due {
		// A previous callback may have cancelled this one
		if _, ok := t.pending[tm.id]; !ok {
			continue
		}
		delete(t.pending, tm.id)
		tm.fn()
	}
}

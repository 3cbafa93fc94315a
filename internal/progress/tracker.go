// Package progress tracks overall and per-item progress of a long running
// task together with a sticky cancellation flag.
package progress

import (
	"sync"
	"sync/atomic"
)

// State is a point-in-time view of a Tracker.
type State struct {
	OverallCurrent  int64
	OverallMax      int64
	ItemCurrent     int64
	ItemMax         int64
	CancelRequested bool
	Message         string
	ItemMessage     string
}

// Listener receives every published change. It is called synchronously on
// the goroutine that changed the tracker and must not block.
type Listener func(State)

// Tracker holds progress counters. Counters never exceed their max and stop
// moving once cancellation has been requested. All methods are safe for
// concurrent use.
type Tracker struct {
	overallCur atomic.Int64
	overallMax atomic.Int64
	itemCur    atomic.Int64
	itemMax    atomic.Int64
	cancelled  atomic.Bool

	message     atomic.Pointer[string]
	itemMessage atomic.Pointer[string]

	mu       sync.Mutex
	listener Listener
}

// New returns a tracker publishing to l, which may be nil.
func New(l Listener) *Tracker {
	return &Tracker{listener: l}
}

// SetListener replaces the change listener.
func (t *Tracker) SetListener(l Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

// ResetOverall sets the overall max and rewinds the overall counter.
func (t *Tracker) ResetOverall(max int64) {
	if t.IsCancelled() {
		return
	}
	t.overallMax.Store(clampMax(max))
	t.overallCur.Store(0)
	t.publish()
}

// ResetItem sets the item max and rewinds the item counter.
func (t *Tracker) ResetItem(max int64) {
	if t.IsCancelled() {
		return
	}
	t.itemMax.Store(clampMax(max))
	t.itemCur.Store(0)
	t.publish()
}

// AdvanceOverall moves the overall counter forward by one. It is a no-op at
// the max or after cancellation.
func (t *Tracker) AdvanceOverall() {
	if advance(&t.overallCur, &t.overallMax, &t.cancelled) {
		t.publish()
	}
}

// AdvanceItem moves the item counter forward by one. It is a no-op at the
// max or after cancellation.
func (t *Tracker) AdvanceItem() {
	if advance(&t.itemCur, &t.itemMax, &t.cancelled) {
		t.publish()
	}
}

// SetMessage updates the overall phase message.
func (t *Tracker) SetMessage(msg string) {
	if t.IsCancelled() {
		return
	}
	t.message.Store(&msg)
	t.publish()
}

// SetItemMessage updates the message describing the current item.
func (t *Tracker) SetItemMessage(msg string) {
	if t.IsCancelled() {
		return
	}
	t.itemMessage.Store(&msg)
	t.publish()
}

// RequestCancel marks the tracker cancelled. The flag never clears.
func (t *Tracker) RequestCancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		t.publish()
	}
}

// IsCancelled reports whether cancellation has been requested.
func (t *Tracker) IsCancelled() bool {
	return t.cancelled.Load()
}

// Snapshot returns the current counters and messages.
func (t *Tracker) Snapshot() State {
	s := State{
		OverallCurrent:  t.overallCur.Load(),
		OverallMax:      t.overallMax.Load(),
		ItemCurrent:     t.itemCur.Load(),
		ItemMax:         t.itemMax.Load(),
		CancelRequested: t.cancelled.Load(),
	}
	if p := t.message.Load(); p != nil {
		s.Message = *p
	}
	if p := t.itemMessage.Load(); p != nil {
		s.ItemMessage = *p
	}
	return s
}

func (t *Tracker) publish() {
	t.mu.Lock()
	l := t.listener
	t.mu.Unlock()
	if l != nil {
		l(t.Snapshot())
	}
}

func advance(cur, max *atomic.Int64, cancelled *atomic.Bool) bool {
	for {
		if cancelled.Load() {
			return false
		}
		c := cur.Load()
		if c >= max.Load() {
			return false
		}
		if cur.CompareAndSwap(c, c+1) {
			return true
		}
	}
}

func clampMax(max int64) int64 {
	if max < 0 {
		return 0
	}
	return max
}

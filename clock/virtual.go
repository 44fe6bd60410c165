package clock

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// Virtual is a manually advanced clock for deterministic tests. Timers
// fire on the goroutine calling AdvanceTo or AdvanceBy, in time order,
// with ties broken by scheduling order. Only one goroutine should advance
// the clock at a time; Now, Schedule and Stop may be called from anywhere,
// including from inside a firing callback.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers *redblacktree.Tree
}

type timerKey struct {
	at  time.Time
	seq uint64
}

type virtualTimer struct {
	clock *Virtual
	key   timerKey
	f     func()
}

func NewVirtual(start time.Time) *Virtual {
	return &Virtual{
		now:    start,
		timers: redblacktree.NewWith(compareTimerKeys),
	}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.now
}

func (v *Virtual) Schedule(at time.Time, f func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()

	if at.Before(v.now) {
		at = v.now
	}

	v.seq++
	t := &virtualTimer{
		clock: v,
		key:   timerKey{at: at, seq: v.seq},
		f:     f,
	}
	v.timers.Put(t.key, t)

	return t
}

// AdvanceTo fires every timer due at or before t, moving Now to each
// timer's time before its callback runs, then leaves Now at t. Timers
// scheduled by callbacks are fired in the same pass when they fall due.
func (v *Virtual) AdvanceTo(t time.Time) {
	for {
		v.mu.Lock()
		node := v.timers.Left()
		if node == nil || node.Key.(timerKey).at.After(t) {
			if t.After(v.now) {
				v.now = t
			}
			v.mu.Unlock()
			return
		}

		key := node.Key.(timerKey)
		timer := node.Value.(*virtualTimer)
		v.timers.Remove(key)
		if key.at.After(v.now) {
			v.now = key.at
		}
		v.mu.Unlock()

		timer.f()
	}
}

func (v *Virtual) AdvanceBy(d time.Duration) {
	v.AdvanceTo(v.Now().Add(d))
}

// Stall moves Now forward without firing anything, which lets a callback
// simulate its own execution time. Timers that became due fire on the
// next advance.
func (v *Virtual) Stall(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.now = v.now.Add(d)
}

// Pending is the number of timers that have not fired or been stopped
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.timers.Size()
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if _, found := t.clock.timers.Get(t.key); !found {
		return false
	}
	t.clock.timers.Remove(t.key)
	return true
}

func compareTimerKeys(a, b interface{}) int {
	ka, kb := a.(timerKey), b.(timerKey)
	switch {
	case ka.at.Before(kb.at):
		return -1
	case ka.at.After(kb.at):
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}

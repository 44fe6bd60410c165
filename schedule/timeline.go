package schedule

import (
	"context"
	"sync"
	"time"

	"heartbeat/clock"
)

type timelineState int

const (
	awaitingFirstFire timelineState = iota
	periodic
	stopped
)

func (s timelineState) String() string {
	switch s {
	case awaitingFirstFire:
		return "awaiting_first_fire"
	case periodic:
		return "periodic"
	case stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// timeline drives one work item: an initial timer aligned to the sample,
// then re-firing every period. Fire times are anchored to the first target
// (next += period) so they never drift with callback or dispatch latency.
type timeline struct {
	mu     sync.Mutex
	item   *WorkItem
	clock  clock.Clock
	period time.Duration
	invoke func(*WorkItem)

	state    timelineState
	next     time.Time
	lastFire time.Time
	timer    clock.Timer
}

func newTimeline(item *WorkItem, clk clock.Clock, period time.Duration, invoke func(*WorkItem)) *timeline {
	return &timeline{
		item:   item,
		clock:  clk,
		period: period,
		invoke: invoke,
	}
}

// start aligns the item to the current sample, runs an inclusive catch-up
// when its offset already passed, and installs the first timer.
func (t *timeline) start(ctx context.Context) error {
	now := t.clock.Now()
	target := SampleBegin(now, t.period).Add(t.item.offset)

	if target.Before(now) {
		if t.item.inclusive && !t.isStopped() {
			if err := ctx.Err(); err != nil {
				return err
			}
			t.invoke(t.item)
		}
		target = target.Add(t.period)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// stop won the race with the catch-up run
	if t.state == stopped {
		return nil
	}
	t.next = target
	t.timer = t.clock.Schedule(target, t.fire)
	return nil
}

func (t *timeline) fire() {
	t.mu.Lock()
	if t.state == stopped {
		t.mu.Unlock()
		return
	}
	t.state = periodic
	t.lastFire = t.next
	t.next = t.next.Add(t.period)
	t.mu.Unlock()

	t.invoke(t.item)

	// re-arm only after the callback returns so runs of one item never overlap
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stopped {
		return
	}
	t.timer = t.clock.Schedule(t.next, t.fire)
}

func (t *timeline) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stopped {
		return
	}
	t.state = stopped
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *timeline) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state == stopped
}

func (t *timeline) info() (timelineState, time.Time, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state, t.next, t.lastFire
}

package schedule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkItem is one registered task. It is never modified after Schedule
// creates it.
type WorkItem struct {
	id        uuid.UUID
	name      string
	offset    time.Duration
	task      func()
	inclusive bool

	// held while task runs
	running sync.Mutex
}

func newWorkItem(name string, offset time.Duration, task func(), inclusive bool) *WorkItem {
	return &WorkItem{
		id:        uuid.New(),
		name:      name,
		offset:    offset,
		task:      task,
		inclusive: inclusive,
	}
}

func (w *WorkItem) ID() uuid.UUID {
	return w.id
}

func (w *WorkItem) Name() string {
	return w.name
}

// Offset is the run time measured from the start of each sample
func (w *WorkItem) Offset() time.Duration {
	return w.offset
}

// Inclusive items run immediately on start when their offset already
// passed in the current sample.
func (w *WorkItem) Inclusive() bool {
	return w.inclusive
}

package schedule

import "time"

type TaskInfo struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Offset    time.Duration `json:"offset"`
	Inclusive bool          `json:"inclusive"`
	State     string        `json:"state"`
	Next      time.Time     `json:"next"`
	LastFire  time.Time     `json:"last_fire"`
	Runs      int           `json:"runs"`
	Panics    int           `json:"panics"`
}

type Snapshot struct {
	Running    bool          `json:"running"`
	Sampling   time.Duration `json:"sampling"`
	SampleTime time.Time     `json:"sample_time"`
	Tasks      []TaskInfo    `json:"tasks"`
}

// Snapshot reports every registered task in registration order
func (s *ActionScheduler) Snapshot() Snapshot {
	s.mu.Lock()
	items := make([]*WorkItem, 0, s.registry.Len())
	for i := 0; i < s.registry.Len(); i++ {
		items = append(items, s.registry.At(i))
	}
	timelines := s.timelines
	running := s.running
	s.mu.Unlock()

	counters := s.stats.ToMap()

	// timelines are built from the registry in order, so indexes line up
	tasks := make([]TaskInfo, 0, len(items))
	for i, item := range items {
		info := TaskInfo{
			ID:        item.id.String(),
			Name:      item.name,
			Offset:    item.offset,
			Inclusive: item.inclusive,
			State:     "registered",
			Runs:      counters[runsKey(item)],
			Panics:    counters[panicsKey(item)],
		}
		if i < len(timelines) && timelines[i].item == item {
			state, next, lastFire := timelines[i].info()
			info.State = state.String()
			info.Next = next
			info.LastFire = lastFire
		}
		tasks = append(tasks, info)
	}

	return Snapshot{
		Running:    running,
		Sampling:   s.sampling,
		SampleTime: s.SampleTime(),
		Tasks:      tasks,
	}
}

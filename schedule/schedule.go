package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heartbeat/clock"
	"heartbeat/errors"
	"heartbeat/logger"
	"heartbeat/util"

	"github.com/gammazero/deque"
	"golang.org/x/sync/errgroup"
)

// ActionScheduler runs registered tasks at fixed offsets within a repeating
// sample window. Tasks are registered with Schedule, then Start aligns
// every task to the current sample and keeps it firing once per sample
// until Stop.
//
// Schedule returns ErrAlreadyStarted while the scheduler is running. After
// Stop the registered tasks are kept and Start may be called again. Runs of
// one task never overlap, including across a restart: a catch-up waits for
// the run left over from the previous Start. Calling Start from inside a
// task is not supported.
type ActionScheduler struct {
	mu          sync.Mutex
	clock       clock.Clock
	sampling    time.Duration
	panicPolicy PanicPolicy
	onError     func(*errors.ErrorReport)

	registry  *deque.Deque[*WorkItem]
	timelines []*timeline
	running   bool

	// incremented by every Start
	generation uint64

	stats *util.Stats
}

// New builds a scheduler for the given sampling period. A nil clock uses
// the system clock.
func New(sampling time.Duration, clk clock.Clock, opts ...Option) (*ActionScheduler, error) {
	if sampling <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidSampling, sampling)
	}
	if clk == nil {
		clk = clock.Real()
	}

	s := &ActionScheduler{
		clock:       clk,
		sampling:    sampling,
		panicPolicy: PanicRecover,
		registry:    deque.New[*WorkItem](),
		stats:       &util.Stats{},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *ActionScheduler) Sampling() time.Duration {
	return s.sampling
}

// SampleTime is the beginning of the current sample
func (s *ActionScheduler) SampleTime() time.Time {
	return SampleBegin(s.clock.Now(), s.sampling)
}

// Schedule registers task to run offset after the start of every sample.
// When inclusive is set and offset already passed in the sample current at
// Start, the task also runs immediately as a catch-up.
func (s *ActionScheduler) Schedule(offset time.Duration, task func(), inclusive bool) error {
	return s.ScheduleNamed("", offset, task, inclusive)
}

// ScheduleNamed is Schedule with a name used in logs and snapshots
func (s *ActionScheduler) ScheduleNamed(name string, offset time.Duration, task func(), inclusive bool) error {
	if task == nil {
		return fmt.Errorf("%w: task is required", ErrInvalidArgument)
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset %s is negative", ErrInvalidArgument, offset)
	}
	if offset > s.sampling {
		return fmt.Errorf("%w: offset %s must be within sampling %s", ErrInvalidArgument, offset, s.sampling)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyStarted
	}
	if name == "" {
		name = fmt.Sprintf("task-%d", s.registry.Len()+1)
	}

	item := newWorkItem(name, offset, task, inclusive)
	s.registry.PushBack(item)

	logger.Debug("Task scheduled", "task", name, "id", item.id.String(), "offset", offset, "inclusive", inclusive)
	return nil
}

// Start aligns every registered task to the current sample and installs
// its timer. Tasks are started concurrently; Start returns once all of them
// finished, including inclusive catch-up runs.
func (s *ActionScheduler) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	timelines := make([]*timeline, 0, s.registry.Len())
	for i := 0; i < s.registry.Len(); i++ {
		timelines = append(timelines, newTimeline(s.registry.At(i), s.clock, s.sampling, s.invoke))
	}
	s.timelines = timelines
	s.running = true
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	logger.Info("Starting action scheduler", "sampling", s.sampling, "tasks", len(timelines), "sample_time", s.SampleTime().UTC().Format(time.RFC3339))

	var (
		panicOnce  sync.Once
		panicValue interface{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range timelines {
		g.Go(func() (err error) {
			// a propagated catch-up panic is raised again on the caller of Start
			defer func() {
				if p := recover(); p != nil {
					panicOnce.Do(func() { panicValue = p })
					err = errCatchUpPanicked
				}
			}()
			return t.start(gctx)
		})
	}

	err := g.Wait()
	if err != nil {
		s.abort(generation, timelines)
	}
	if panicValue != nil {
		panic(panicValue)
	}
	return err
}

// abort stops the timelines of a failed Start. A newer Start that already
// replaced them is left running.
func (s *ActionScheduler) abort(generation uint64, timelines []*timeline) {
	s.mu.Lock()
	if s.generation == generation && s.running {
		s.timelines = nil
		s.running = false
	}
	s.mu.Unlock()

	for _, t := range timelines {
		t.stop()
	}
}

// Run starts the scheduler and blocks until ctx is done. Timers are always
// cancelled before Run returns.
func (s *ActionScheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	<-ctx.Done()
	return nil
}

// Stop cancels every pending timer. It does not wait for callbacks that are
// already running; those finish in the background and are not re-armed.
// Stop is safe to call more than once and from inside a task.
func (s *ActionScheduler) Stop() {
	s.mu.Lock()
	timelines := s.timelines
	wasRunning := s.running
	s.timelines = nil
	s.running = false
	s.mu.Unlock()

	for _, t := range timelines {
		t.stop()
	}

	if wasRunning {
		logger.Info("Stopped action scheduler", "tasks", len(timelines))
	}
}

// Close is Stop, for use with defer
func (s *ActionScheduler) Close() error {
	s.Stop()
	return nil
}

func (s *ActionScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Runs is the number of times the named task was invoked
func (s *ActionScheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.registry.Len(); i++ {
		if item := s.registry.At(i); item.name == name {
			return s.stats.Get(runsKey(item))
		}
	}
	return 0
}

func (s *ActionScheduler) invoke(item *WorkItem) {
	item.running.Lock()
	defer item.running.Unlock()

	s.stats.Increment(runsKey(item))

	switch s.panicPolicy {
	case PanicPropagate:
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Task panicked", "task", item.name, "panic", p)
				panic(p)
			}
		}()
	default:
		defer errors.Recover(func(report *errors.ErrorReport) {
			s.stats.Increment(panicsKey(item))
			logger.Error("Task panicked", "task", item.name, "err", report.Error)
			if s.onError != nil {
				s.onError(report)
			}
		})
	}

	started := s.clock.Now()
	item.task()
	logger.Debug("Task ran", "task", item.name, "duration_ms", util.DurationToMilliseconds(s.clock.Now().Sub(started)))
}

func runsKey(item *WorkItem) string {
	return item.id.String() + ".runs"
}

func panicsKey(item *WorkItem) string {
	return item.id.String() + ".panics"
}

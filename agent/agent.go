package agent

import (
	"context"
	"fmt"
	"heartbeat/api"
	"heartbeat/clock"
	"heartbeat/config"
	"heartbeat/data"
	"heartbeat/db"
	"heartbeat/errors"
	"heartbeat/logger"
	"heartbeat/schedule"
	"heartbeat/server"
	"heartbeat/util"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

const maxBufferedRequests = 10

// Sender delivers heartbeats; api.Client in production
type Sender interface {
	Send(request *api.HeartbeatRequest) (*api.Response, error)
}

type Agent struct {
	config          config.Config
	data            *data.Data
	scheduler       *schedule.ActionScheduler
	sender          Sender
	postgresClients []*db.PostgresClient

	// guards requests; heartbeat runs never overlap but Test can run alongside
	mu       sync.Mutex
	requests *deque.Deque[*api.HeartbeatRequest]

	warnedOutdated bool
}

func New(config config.Config) (*Agent, error) {
	var postgresClients []*db.PostgresClient
	if config.MonitorPostgres {
		postgresClients = db.BuildPostgresClients(config)
	}

	return NewWithClock(config, clock.Real(), api.NewClient(config), postgresClients)
}

// NewWithClock builds an agent on an explicit time source and sender
func NewWithClock(config config.Config, clk clock.Clock, sender Sender, postgresClients []*db.PostgresClient) (*Agent, error) {
	panicPolicy, err := schedule.ParsePanicPolicy(config.PanicPolicy)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		config:          config,
		data:            &data.Data{},
		sender:          sender,
		postgresClients: postgresClients,
		requests:        deque.New[*api.HeartbeatRequest](maxBufferedRequests, maxBufferedRequests),
	}

	a.scheduler, err = schedule.New(
		config.SamplingPeriod,
		clk,
		schedule.WithPanicPolicy(panicPolicy),
		schedule.WithErrorHandler(a.data.AddError),
	)
	if err != nil {
		return nil, err
	}

	for _, task := range config.Tasks {
		f, err := a.taskFunc(task.Kind)
		if err != nil {
			return nil, err
		}
		if err := a.scheduler.ScheduleNamed(task.Name, task.Offset, f, task.Inclusive); err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Name, err)
		}
	}

	return a, nil
}

func (a *Agent) Scheduler() *schedule.ActionScheduler {
	return a.scheduler
}

// Run blocks until ctx is done, then stops every timer
func (a *Agent) Run(ctx context.Context) error {
	logger.Info("Starting heartbeat agent", "uuid", a.config.UUID.String(), "version", a.config.Version, "sampling", a.config.SamplingPeriod)
	defer a.closePostgresClients()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	statusServer := server.NewServer(a.config, a.scheduler.Snapshot)
	go func() {
		if err := statusServer.Start(ctx); err != nil {
			logger.Error("Status server failed", "err", err)
			errors.ReportTo(a.data.AddError, err)
		}
	}()

	return a.scheduler.Run(ctx)
}

// Test runs every configured task once, in order
func (a *Agent) Test() error {
	logger.Info("Testing heartbeat agent setup")
	defer a.closePostgresClients()

	for _, task := range a.config.Tasks {
		f, err := a.taskFunc(task.Kind)
		if err != nil {
			return err
		}
		logger.Info("Running task", "task", task.Name, "kind", task.Kind)
		f()
	}
	return nil
}

func (a *Agent) taskFunc(kind string) (func(), error) {
	switch kind {
	case config.HeartbeatTaskKind:
		return a.sendHeartbeat, nil
	case config.PostgresTaskKind:
		return a.probePostgres, nil
	case config.StatsTaskKind:
		return a.logStats, nil
	default:
		return nil, fmt.Errorf("%w: unknown task kind %q", schedule.ErrInvalidArgument, kind)
	}
}

// scheduled
func (a *Agent) probePostgres() {
	if len(a.postgresClients) == 0 {
		return
	}
	a.data.AddProbeSamples(db.ProbeAll(context.Background(), a.postgresClients))
}

// scheduled
func (a *Agent) logStats() {
	snapshot := a.scheduler.Snapshot()
	for _, task := range snapshot.Tasks {
		logger.Info("Task stats", "task", task.Name, "state", task.State, "runs", task.Runs, "panics", task.Panics, "next", task.Next.UTC().Format(time.RFC3339))
	}
}

// scheduled
func (a *Agent) sendHeartbeat() {
	if !a.config.ReportingEnabled() && !a.config.TestMode {
		// nothing will ever send what was collected
		a.data.CopyAndReset()
		logger.Debug("Skipping heartbeat, no api key configured")
		return
	}

	d := a.data.CopyAndReset()
	snapshot := a.scheduler.Snapshot()
	request := api.NewHeartbeatRequest(a.config, d, &snapshot, time.Now().UTC().Unix())

	a.mu.Lock()
	defer a.mu.Unlock()

	// uses a deque to store last 10 requests as a LIFO stack
	// we keep the most recent 10 requests - overwriting the oldest first
	if a.requests.Len() == maxBufferedRequests {
		a.requests.PopFront() // remove the oldest request
	}
	a.requests.PushBack(&request)

	// send the latest two requests each call to backfill gradually
	for i := 0; i < 2 && a.requests.Len() > 0; i++ {
		apiRequest := a.requests.PopBack()
		if !a.sendSingleRequest(apiRequest) {
			logger.Info("Saving failed heartbeat to retry later")
			a.requests.PushBack(apiRequest)
			break
		}
	}
}

func (a *Agent) sendSingleRequest(request *api.HeartbeatRequest) bool {
	if a.config.IsLogDebug() {
		json, err := request.ToJSON()
		if err == nil {
			logger.Debug("JSON Request", "json", string(json), "bytes", len(json))
		}
	}

	response, err := a.sender.Send(request)
	if err != nil {
		logger.Error("Heartbeat error", "err", err)
		return false
	}

	logger.Info("Heartbeat status", "status", response.StatusCode)
	switch {
	case response.StatusCode == 401:
		logger.Warn("Invalid API Key", "status", 401)
	case response.Retryable():
		return false
	}

	if !a.warnedOutdated && util.VersionOutdated(a.config.Version, response.MinAgentVersion) {
		logger.Warn("Agent version is outdated", "version", a.config.Version, "min_version", response.MinAgentVersion)
		a.warnedOutdated = true
	}

	return true
}

func (a *Agent) bufferedRequests() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.requests.Len()
}

func (a *Agent) closePostgresClients() {
	for _, client := range a.postgresClients {
		if err := client.Close(); err != nil {
			logger.Warn("Unable to close postgres client", "server", client.ServerID().ConfigName, "err", err)
		}
	}
}

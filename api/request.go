package api

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"heartbeat/config"
	"heartbeat/data"
	"heartbeat/db"
	"heartbeat/errors"
	"heartbeat/schedule"
	"heartbeat/util"
)

//
// These are api request structs that define the json message payload to the api
//

type HeartbeatRequest struct {
	ReportedAt int64       `json:"reported_at"`
	SampleTime int64       `json:"sample_time"`
	Agent      Agent       `json:"agent"`
	Scheduler  *Scheduler  `json:"scheduler,omitempty"`
	Postgres   []*Postgres `json:"postgres,omitempty"`
}

type Agent struct {
	UUID          string   `json:"uuid"`
	Version       string   `json:"version"`
	HostPlatform  string   `json:"host_platform,omitempty"`
	Errors        []*Error `json:"errors,omitempty"`
	DroppedErrors int      `json:"dropped_errors,omitempty"`
}

type Error struct {
	Error      string `json:"error"`
	Panic      bool   `json:"panic"`
	StackTrace string `json:"stack_trace"`
	ReportedAt int64  `json:"reported_at,omitempty"`
}

type Scheduler struct {
	SamplingMs float64 `json:"sampling_ms"`
	Running    bool    `json:"running"`
	Tasks      []*Task `json:"tasks,omitempty"`
}

type Task struct {
	Name      string  `json:"name"`
	OffsetMs  float64 `json:"offset_ms"`
	Inclusive bool    `json:"inclusive,omitempty"`
	State     string  `json:"state"`
	NextAt    int64   `json:"next_at,omitempty"`
	LastAt    int64   `json:"last_at,omitempty"`
	Runs      int     `json:"runs"`
	Panics    int     `json:"panics,omitempty"`
}

type Postgres struct {
	// ex. GREEN
	ConfigName string `json:"config_name"`

	// ex. GREEN_URL
	ConfigVarName string `json:"config_var_name"`

	Database   string  `json:"database,omitempty"`
	LatencyMs  float64 `json:"latency_ms,omitempty"`
	Version    string  `json:"version,omitempty"`
	Error      string  `json:"error,omitempty"`
	MeasuredAt int64   `json:"measured_at"`
}

func NewHeartbeatRequest(config config.Config, data *data.Data, snapshot *schedule.Snapshot, reportedAt int64) HeartbeatRequest {
	request := HeartbeatRequest{
		ReportedAt: reportedAt,
		Agent: Agent{
			UUID:          config.UUID.String(),
			Version:       config.Version,
			HostPlatform:  config.AgentHostPlatform,
			Errors:        ConvertErrors(data.Errors),
			DroppedErrors: data.DroppedErrors,
		},
		Postgres: ConvertProbeSamples(data.ProbeSamples),
	}

	if snapshot != nil {
		request.SampleTime = util.UnixOrZero(snapshot.SampleTime)
		request.Scheduler = ConvertSnapshot(snapshot)
	}

	return request
}

// Returns JSON as bytes
func (r *HeartbeatRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func (r *HeartbeatRequest) ToCompressedJSON() (*bytes.Buffer, error) {
	json, err := r.ToJSON()
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	gz := gzip.NewWriter(&buffer)
	if _, err := gz.Write(json); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	return &buffer, nil
}

func ConvertSnapshot(snapshot *schedule.Snapshot) *Scheduler {
	scheduler := &Scheduler{
		SamplingMs: util.DurationToMilliseconds(snapshot.Sampling),
		Running:    snapshot.Running,
	}

	for _, info := range snapshot.Tasks {
		scheduler.Tasks = append(scheduler.Tasks, &Task{
			Name:      info.Name,
			OffsetMs:  util.DurationToMilliseconds(info.Offset),
			Inclusive: info.Inclusive,
			State:     info.State,
			NextAt:    util.UnixOrZero(info.Next),
			LastAt:    util.UnixOrZero(info.LastFire),
			Runs:      info.Runs,
			Panics:    info.Panics,
		})
	}

	return scheduler
}

func ConvertProbeSamples(from []db.ProbeSample) []*Postgres {
	if len(from) == 0 {
		return nil
	}

	var to []*Postgres
	for _, sample := range from {
		to = append(to, &Postgres{
			ConfigName:    sample.ServerID.ConfigName,
			ConfigVarName: sample.ServerID.ConfigVarName,
			Database:      sample.ServerID.Database,
			LatencyMs:     sample.LatencyMs,
			Version:       sample.Version,
			Error:         sample.Error,
			MeasuredAt:    sample.MeasuredAt,
		})
	}

	return to
}

func ConvertErrors(errors []errors.ErrorReport) []*Error {
	if len(errors) == 0 {
		return nil
	}

	var toErrors []*Error

	for _, err := range errors {
		toErr := &Error{
			Panic:      err.Panic,
			StackTrace: err.StackTrace,
			ReportedAt: util.UnixOrZero(err.ReportedAt),
		}
		if err.Error != nil {
			toErr.Error = err.Error.Error()
		}
		toErrors = append(toErrors, toErr)
	}

	return toErrors
}

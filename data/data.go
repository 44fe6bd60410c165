package data

import (
	"heartbeat/db"
	"heartbeat/errors"
	"sync"
)

// maximum error reports kept between heartbeats, oldest are dropped first
const maxErrors = 20

// Data collects what tasks observed between two heartbeats
type Data struct {
	ProbeSamples  []db.ProbeSample
	Errors        []errors.ErrorReport
	DroppedErrors int
	mu            sync.Mutex
}

func (d *Data) AddProbeSamples(samples []*db.ProbeSample) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sample := range samples {
		d.ProbeSamples = append(d.ProbeSamples, *sample)
	}
}

func (d *Data) AddError(report *errors.ErrorReport) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.Errors) == maxErrors {
		d.Errors = d.Errors[1:]
		d.DroppedErrors++
	}
	d.Errors = append(d.Errors, *report)
}

func (d *Data) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.ProbeSamples) == 0 && len(d.Errors) == 0
}

// Size is the number of samples and errors waiting for the next heartbeat
func (d *Data) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.ProbeSamples) + len(d.Errors)
}

func (d *Data) CopyAndReset() *Data {
	d.mu.Lock()
	defer d.mu.Unlock()

	copy := &Data{
		ProbeSamples:  d.ProbeSamples,
		Errors:        d.Errors,
		DroppedErrors: d.DroppedErrors,
	}

	d.ProbeSamples = nil
	d.Errors = nil
	d.DroppedErrors = 0

	return copy
}

package data

import (
	"fmt"
	"heartbeat/db"
	"heartbeat/errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddProbeSamples(t *testing.T) {
	data := &Data{}
	assert.True(t, data.Empty())

	data.AddProbeSamples([]*db.ProbeSample{
		{ServerID: db.ServerID{ConfigName: "GREEN"}, LatencyMs: 1.5},
		{ServerID: db.ServerID{ConfigName: "RED"}, Error: "timeout"},
	})

	assert.False(t, data.Empty())
	assert.Equal(t, 2, data.Size())
	assert.Equal(t, 2, len(data.ProbeSamples))
	assert.Equal(t, "GREEN", data.ProbeSamples[0].ServerID.ConfigName)
	assert.Equal(t, 1.5, data.ProbeSamples[0].LatencyMs)
	assert.Equal(t, "timeout", data.ProbeSamples[1].Error)
}

func TestAddErrorDropsOldest(t *testing.T) {
	data := &Data{}

	for i := 0; i < maxErrors+3; i++ {
		data.AddError(errors.NewReport(fmt.Errorf("error %d", i), false))
	}

	assert.Equal(t, maxErrors, len(data.Errors))
	assert.Equal(t, 3, data.DroppedErrors)
	assert.Equal(t, "error 3", data.Errors[0].Error.Error())
}

func TestCopyAndReset(t *testing.T) {
	data := &Data{}
	data.AddProbeSamples([]*db.ProbeSample{{ServerID: db.ServerID{ConfigName: "GREEN"}}})
	data.AddError(errors.NewReport(fmt.Errorf("boom"), true))

	copy := data.CopyAndReset()

	assert.Equal(t, 1, len(copy.ProbeSamples))
	assert.Equal(t, 1, len(copy.Errors))
	assert.True(t, data.Empty())
	assert.Nil(t, data.ProbeSamples)
}

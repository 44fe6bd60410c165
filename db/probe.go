package db

import (
	"context"
	"heartbeat/logger"
	"heartbeat/util"
	"time"
)

const probeTimeout = 5 * time.Second

// ProbeSample is the result of one reachability check of a postgres server
type ProbeSample struct {
	ServerID   ServerID
	LatencyMs  float64
	Version    string
	Error      string
	MeasuredAt int64
}

func (p *ProbeSample) Healthy() bool {
	return p.Error == ""
}

// Probe pings the server and reads its version. Failures are recorded on
// the sample rather than returned so one bad server never hides the rest.
func Probe(ctx context.Context, postgresClient *PostgresClient) *ProbeSample {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	sample := &ProbeSample{
		ServerID:   *postgresClient.serverID,
		MeasuredAt: time.Now().UTC().Unix(),
	}

	started := time.Now()
	if err := postgresClient.client.Ping(ctx); err != nil {
		sample.Error = err.Error()
		logger.Warn("Postgres probe failed", "server", postgresClient.serverID.ConfigName, "err", err)
		return sample
	}
	sample.LatencyMs = util.DurationToMilliseconds(time.Since(started))

	version, err := postgresClient.client.QueryRowString(ctx, "SHOW server_version")
	if err != nil {
		logger.Debug("Unable to read postgres version", "server", postgresClient.serverID.ConfigName, "err", err)
	} else {
		sample.Version = version
	}

	return sample
}

// ProbeAll probes servers one after another
func ProbeAll(ctx context.Context, postgresClients []*PostgresClient) []*ProbeSample {
	samples := make([]*ProbeSample, 0, len(postgresClients))
	for _, postgresClient := range postgresClients {
		samples = append(samples, Probe(ctx, postgresClient))
	}
	return samples
}

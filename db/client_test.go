package db

import (
	"context"
	"heartbeat/config"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPostgresServersNoConfigVars(t *testing.T) {
	servers := BuildPostgresClients(config.Config{})
	assert.Empty(t, servers)
}

func TestFindPostgresServersInvalidConfigName(t *testing.T) {
	os.Setenv("GREEN_URI", "postgres://localhost:5432/test")

	servers := BuildPostgresClients(config.Config{})
	assert.Empty(t, servers)

	os.Unsetenv("GREEN_URI")
}

func TestFindPostgresServersInvalidURL(t *testing.T) {
	os.Setenv("GREEN_URL", "mysql://localhost:5432/test")

	servers := BuildPostgresClients(config.Config{})
	assert.Empty(t, servers)

	os.Unsetenv("GREEN_URL")
}

func TestFindPostgresServersConfigVar(t *testing.T) {
	os.Setenv("GREEN_URL", "postgres://localhost:5432/test")
	defer os.Unsetenv("GREEN_URL")

	clients := BuildPostgresClients(config.Config{})
	require.Equal(t, 1, len(clients))

	client := clients[0]
	assert.Equal(t, "GREEN_URL", client.serverID.ConfigVarName)
	assert.Equal(t, "GREEN", client.serverID.ConfigName)
	assert.Equal(t, "test", client.serverID.Database)
	assert.Equal(t, "localhost", client.Host())
	assert.Equal(t, "postgres://localhost:5432/test?application_name=heartbeat-agent&statement_cache_mode=describe", client.url)
	assert.NotNil(t, client.client)
}

func TestFindPostgresServersConfigVarHerokuPostgres(t *testing.T) {
	os.Setenv("HEROKU_POSTGRESQL_GREEN_URL", "postgres://localhost:5432/test?sslmode=require")
	defer os.Unsetenv("HEROKU_POSTGRESQL_GREEN_URL")

	clients := BuildPostgresClients(config.Config{})
	require.Equal(t, 1, len(clients))

	client := clients[0]
	assert.Equal(t, "HEROKU_POSTGRESQL_GREEN_URL", client.serverID.ConfigVarName)
	assert.Equal(t, "GREEN", client.serverID.ConfigName)
	assert.Equal(t, "postgres://localhost:5432/test?sslmode=require&application_name=heartbeat-agent&statement_cache_mode=describe", client.url)
}

func TestFindPostgresServersMultipleConfigVars(t *testing.T) {
	os.Setenv("RED_URL", "postgres://localhost:5432/test2")
	os.Setenv("GREEN_URL", "postgres://localhost:5432/test")
	defer os.Unsetenv("GREEN_URL")
	defer os.Unsetenv("RED_URL")

	clients := BuildPostgresClients(config.Config{})
	require.Equal(t, 2, len(clients))

	// sorted by config var name
	assert.Equal(t, "GREEN", clients[0].serverID.ConfigName)
	assert.Equal(t, "test", clients[0].serverID.Database)
	assert.Equal(t, "RED", clients[1].serverID.ConfigName)
	assert.Equal(t, "test2", clients[1].serverID.Database)
}

func TestProbeWithoutConnection(t *testing.T) {
	postgresClient := &PostgresClient{
		client: &Client{mu: &sync.Mutex{}},
		serverID: &ServerID{
			ConfigName:    "GREEN",
			ConfigVarName: "GREEN_URL",
		},
	}

	sample := Probe(context.Background(), postgresClient)

	assert.False(t, sample.Healthy())
	assert.Equal(t, "no database connection", sample.Error)
	assert.Equal(t, "GREEN", sample.ServerID.ConfigName)
	assert.NotZero(t, sample.MeasuredAt)
	assert.NoError(t, postgresClient.Close())
}

func TestProbeAll(t *testing.T) {
	clients := []*PostgresClient{
		{client: &Client{mu: &sync.Mutex{}}, serverID: &ServerID{ConfigName: "GREEN"}},
		{client: &Client{mu: &sync.Mutex{}}, serverID: &ServerID{ConfigName: "RED"}},
	}

	samples := ProbeAll(context.Background(), clients)

	require.Len(t, samples, 2)
	assert.Equal(t, "GREEN", samples[0].ServerID.ConfigName)
	assert.Equal(t, "RED", samples[1].ServerID.ConfigName)
}

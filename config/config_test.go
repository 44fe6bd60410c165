package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvVar(t *testing.T) {
	assert.Equal(t, "foo", getEnvVar("FOO", "foo"))
	assert.Equal(t, "", getEnvVar("FOO", ""))

	os.Setenv("FOO", "bar")
	assert.Equal(t, "bar", getEnvVar("FOO", "foo"))
	assert.Equal(t, "bar", getEnvVar("FOO", ""))

	os.Unsetenv("FOO")
}

func TestGetEnvVarBool(t *testing.T) {
	assert.False(t, getEnvVarBool("FOO", false))
	assert.True(t, getEnvVarBool("FOO", true))

	os.Setenv("FOO", "false")
	assert.False(t, getEnvVarBool("FOO", true))

	os.Setenv("FOO", "true")
	assert.True(t, getEnvVarBool("FOO", false))

	os.Unsetenv("FOO")
}

func TestGetEnvVarDuration(t *testing.T) {
	assert.Equal(t, 10*time.Second, getEnvVarDuration("SAMPLING", 10*time.Second))

	os.Setenv("SAMPLING", "1m")
	assert.Equal(t, time.Minute, getEnvVarDuration("SAMPLING", 10*time.Second))

	os.Setenv("SAMPLING", "30")
	assert.Equal(t, 30*time.Second, getEnvVarDuration("SAMPLING", 10*time.Second))

	// non-positive and garbage values fall back to the default
	os.Setenv("SAMPLING", "-5s")
	assert.Equal(t, 10*time.Second, getEnvVarDuration("SAMPLING", 10*time.Second))

	os.Setenv("SAMPLING", "soon")
	assert.Equal(t, 10*time.Second, getEnvVarDuration("SAMPLING", 10*time.Second))

	os.Unsetenv("SAMPLING")
}

func TestGetAgentHostPlatformHeroku(t *testing.T) {
	os.Setenv("DYNO", "bar-service")
	assert.Equal(t, HerokuAgentHostPlatform, getAgentHostPlatform())
	os.Unsetenv("DYNO")
}

func TestGetAgentHostPlatformECS(t *testing.T) {
	os.Setenv("ECS_CONTAINER_METADATA_URI", "foo-uri")
	assert.Equal(t, ECSAgentHostPlatform, getAgentHostPlatform())
	os.Unsetenv("ECS_CONTAINER_METADATA_URI")
}

func TestNewDefaults(t *testing.T) {
	config, err := New()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, config.SamplingPeriod)
	assert.Equal(t, "recover", config.PanicPolicy)
	assert.Equal(t, version, config.Version)
	assert.False(t, config.ReportingEnabled())
	assert.True(t, config.MonitorPostgres)
	assert.Len(t, config.Tasks, 3)
}

func TestNewWithTasksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - kind: stats\n    offset: 2s\n"), 0o600))

	os.Setenv("HEARTBEAT_TASKS_FILE", path)
	os.Setenv("SAMPLING_PERIOD", "5s")
	defer os.Unsetenv("HEARTBEAT_TASKS_FILE")
	defer os.Unsetenv("SAMPLING_PERIOD")

	config, err := New()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, config.SamplingPeriod)
	assert.Equal(t, []Task{{Name: "stats", Kind: StatsTaskKind, Offset: 2 * time.Second}}, config.Tasks)
}

func TestNewWithInvalidTasksFile(t *testing.T) {
	os.Setenv("HEARTBEAT_TASKS_FILE", filepath.Join(t.TempDir(), "missing.yml"))
	defer os.Unsetenv("HEARTBEAT_TASKS_FILE")

	_, err := New()
	assert.Error(t, err)
}

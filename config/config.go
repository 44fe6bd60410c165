package config

import (
	"heartbeat/logger"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const version = "0.1.0"

const (
	ECSAgentHostPlatform    = "aws_ecs"
	HerokuAgentHostPlatform = "heroku"
)

type Config struct {
	APIEndpoint       string
	APIKey            string
	Environment       string // development vs production
	Port              string
	StatusToken       string
	AgentHostPlatform string
	UUID              uuid.UUID
	Version           string

	LogLevel string

	// width of the repeating window every task offset is measured from
	SamplingPeriod time.Duration
	PanicPolicy    string
	TasksFile      string
	Tasks          []Task

	MonitorPostgres bool

	TestMode bool
}

// Creates a new Config based on env vars
func New() (Config, error) {
	// initialize UTC timezone
	os.Setenv("TZ", "UTC")

	logLevel := getEnvVar("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	sampling := getEnvVarDuration("SAMPLING_PERIOD", 10*time.Second)
	tasksFile := getEnvVar("HEARTBEAT_TASKS_FILE", "")

	tasks, err := LoadTasks(tasksFile, sampling)
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIEndpoint:       getEnvVar("HEARTBEAT_API_URL", "http://localhost:8080/agent/v1/heartbeat"),
		APIKey:            getEnvVar("HEARTBEAT_API_KEY", ""),
		Environment:       getEnvVar("AGENT_ENV", "production"),
		Port:              getEnvVar("PORT", "8080"),
		StatusToken:       getEnvVar("STATUS_TOKEN", ""),
		AgentHostPlatform: getAgentHostPlatform(),
		UUID:              uuid.New(),
		Version:           version,
		LogLevel:          logLevel,
		SamplingPeriod:    sampling,
		PanicPolicy:       getEnvVar("CALLBACK_PANIC_POLICY", "recover"),
		TasksFile:         tasksFile,
		Tasks:             tasks,
		MonitorPostgres:   getEnvVarBool("MONITOR_POSTGRES", true),
	}, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsLogDebug() bool {
	return c.LogLevel == "debug"
}

// heartbeats are only sent when an api key is configured
func (c *Config) ReportingEnabled() bool {
	return c.APIKey != ""
}

func (c *Config) SetTestMode() {
	c.TestMode = true
}

func getEnvVar(name string, defaultValue string) string {
	envVar := os.Getenv(name)
	if envVar == "" {
		envVar = defaultValue
	}
	return envVar
}

func getEnvVarBool(name string, defaultValue bool) bool {
	value := getEnvVar(name, strconv.FormatBool(defaultValue))

	valueBool, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return valueBool
}

// accepts Go durations (10s, 1m) or plain seconds
func getEnvVarDuration(name string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		value = strconv.Itoa(seconds) + "s"
	}

	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		logger.Warn("Invalid duration, using default", "name", name, "value", value, "default", defaultValue)
		return defaultValue
	}
	return duration
}

// use var form for testing
func getAgentHostPlatform() string {
	if os.Getenv("DYNO") != "" {
		return HerokuAgentHostPlatform
	} else if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("ECS_CONTAINER_METADATA_URI_V4") != "" || os.Getenv("ECS_AGENT_URI") != "" {
		return ECSAgentHostPlatform
	} else {
		return ""
	}
}

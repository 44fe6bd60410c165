package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"
)

const (
	HeartbeatTaskKind = "heartbeat"
	PostgresTaskKind  = "postgres"
	StatsTaskKind     = "stats"
)

// Task is one entry of the tasks file, registered with the scheduler at
// startup
type Task struct {
	Name      string
	Kind      string
	Offset    time.Duration
	Inclusive bool
}

// tasksFile mirrors the yaml layout
type tasksFile struct {
	Tasks []struct {
		Name      string `yaml:"name"`
		Kind      string `yaml:"kind"`
		Offset    string `yaml:"offset"`
		Inclusive bool   `yaml:"inclusive"`
	} `yaml:"tasks"`
}

// DefaultTasks spreads the built-in tasks across the sample: heartbeat
// near the start, postgres probes mid-sample and stats near the end
func DefaultTasks(sampling time.Duration) []Task {
	return []Task{
		{Name: HeartbeatTaskKind, Kind: HeartbeatTaskKind, Offset: sampling / 10, Inclusive: true},
		{Name: PostgresTaskKind, Kind: PostgresTaskKind, Offset: sampling / 2},
		{Name: StatsTaskKind, Kind: StatsTaskKind, Offset: sampling * 9 / 10},
	}
}

// LoadTasks reads task definitions from path; an empty path means the
// default tasks
func LoadTasks(path string, sampling time.Duration) ([]Task, error) {
	if path == "" {
		return DefaultTasks(sampling), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tasks file: %w", err)
	}

	return ParseTasks(data, sampling)
}

func ParseTasks(data []byte, sampling time.Duration) ([]Task, error) {
	var file tasksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing tasks file: %w", err)
	}

	seen := make(map[string]bool)
	tasks := make([]Task, 0, len(file.Tasks))
	for i, entry := range file.Tasks {
		kind := strings.ToLower(strings.TrimSpace(entry.Kind))
		if !validKind(kind) {
			return nil, fmt.Errorf("task %d: unknown kind %q", i+1, entry.Kind)
		}

		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = kind
		}
		if seen[name] {
			return nil, fmt.Errorf("task %d: duplicate name %q", i+1, name)
		}
		seen[name] = true

		offset, err := time.ParseDuration(strings.TrimSpace(entry.Offset))
		if err != nil {
			return nil, fmt.Errorf("task %q: invalid offset: %w", name, err)
		}
		if offset < 0 || offset > sampling {
			return nil, fmt.Errorf("task %q: offset %s must be within sampling %s", name, offset, sampling)
		}

		tasks = append(tasks, Task{
			Name:      name,
			Kind:      kind,
			Offset:    offset,
			Inclusive: entry.Inclusive,
		})
	}

	return tasks, nil
}

func validKind(kind string) bool {
	switch kind {
	case HeartbeatTaskKind, PostgresTaskKind, StatsTaskKind:
		return true
	default:
		return false
	}
}

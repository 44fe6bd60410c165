package schedule

import (
	"fmt"
	"strings"

	"heartbeat/errors"
)

// PanicPolicy decides what happens when a task panics
type PanicPolicy int

const (
	// PanicRecover logs and reports the panic and keeps the task scheduled
	PanicRecover PanicPolicy = iota

	// PanicPropagate re-panics on the goroutine that fired the task. A panic
	// in a catch-up run is raised again from Start once every task is
	// aligned, after the timers of that Start are cancelled.
	PanicPropagate
)

func (p PanicPolicy) String() string {
	switch p {
	case PanicRecover:
		return "recover"
	case PanicPropagate:
		return "propagate"
	default:
		return fmt.Sprintf("PanicPolicy(%d)", int(p))
	}
}

func ParsePanicPolicy(value string) (PanicPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "recover":
		return PanicRecover, nil
	case "propagate":
		return PanicPropagate, nil
	default:
		return PanicRecover, fmt.Errorf("%w: unknown panic policy %q", ErrInvalidArgument, value)
	}
}

type Option func(*ActionScheduler)

func WithPanicPolicy(policy PanicPolicy) Option {
	return func(s *ActionScheduler) {
		s.panicPolicy = policy
	}
}

// WithErrorHandler receives a report for every recovered task panic. It is
// called on the firing goroutine.
func WithErrorHandler(f func(*errors.ErrorReport)) Option {
	return func(s *ActionScheduler) {
		s.onError = f
	}
}

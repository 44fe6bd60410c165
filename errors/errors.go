package errors

import (
	"fmt"
	"runtime"
	"time"
)

// ErrorReport describes a failure inside a scheduled task. Reports are
// collected by the host and sent up with the next heartbeat.
type ErrorReport struct {
	Error      error
	Panic      bool
	StackTrace string
	ReportedAt time.Time
}

func NewReport(err error, panic bool) *ErrorReport {
	// report full stack trace - if this is too verbose we can restrict it
	stack := make([]byte, 4096)
	stack = stack[:runtime.Stack(stack, false)]

	return &ErrorReport{
		Error:      err,
		Panic:      panic,
		StackTrace: string(stack),
		ReportedAt: time.Now().UTC(),
	}
}

// ReportTo hands a non-panic error to f
func ReportTo(f func(*ErrorReport), err error) {
	if err == nil || f == nil {
		return
	}
	f(NewReport(err, false))
}

// Recover must be deferred directly. A recovered panic is turned into a
// report and handed to f, which may be nil.
func Recover(f func(*ErrorReport)) {
	if panicValue := recover(); panicValue != nil {
		report := NewReport(FromPanic(panicValue), true)
		if f != nil {
			f(report)
		}
	}
}

// FromPanic converts a recovered value into an error
func FromPanic(panicValue interface{}) error {
	if err, ok := panicValue.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", panicValue)
}

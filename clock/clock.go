package clock

import "time"

// Epoch is the fixed reference instant sample boundaries are measured from
var Epoch = time.Unix(0, 0).UTC()

// Timer is a cancellable handle for a scheduled callback. Stop reports
// whether the call prevented the callback from running.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and fires callbacks at absolute times.
// Implementations must be safe for concurrent use.
type Clock interface {
	Now() time.Time

	// Schedule calls f once at the given time. Times that already passed
	// fire as soon as possible.
	Schedule(at time.Time, f func()) Timer
}

type realClock struct{}

// Real is backed by the system clock and time.AfterFunc
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Schedule(at time.Time, f func()) Timer {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	return time.AfterFunc(delay, f)
}

package schedule

import (
	"math"
	"math/big"
	"time"

	"heartbeat/clock"
)

// instants within this many seconds of the epoch fit in a time.Duration
const maxDurationSeconds = math.MaxInt64/int64(time.Second) - 1

// SampleBegin returns the start of the sampling window containing now: the
// largest multiple of period, counted from clock.Epoch, at or before now.
// period must be positive.
func SampleBegin(now time.Time, period time.Duration) time.Time {
	if period <= 0 {
		panic("schedule: non-positive sampling period")
	}

	return now.Add(-sampleElapsed(now, period))
}

// sampleElapsed is the time since the last sample boundary, exact for any
// instant time.Time can hold
func sampleElapsed(now time.Time, period time.Duration) time.Duration {
	seconds := now.Unix() - clock.Epoch.Unix()
	nanos := int64(now.Nanosecond() - clock.Epoch.Nanosecond())

	if seconds > -maxDurationSeconds && seconds < maxDurationSeconds {
		elapsed := time.Duration(seconds*int64(time.Second)+nanos) % period
		if elapsed < 0 {
			elapsed += period
		}
		return elapsed
	}

	// Mod is euclidean so the remainder is never negative
	total := new(big.Int).Mul(big.NewInt(seconds), big.NewInt(int64(time.Second)))
	total.Add(total, big.NewInt(nanos))
	return time.Duration(total.Mod(total, big.NewInt(int64(period))).Int64())
}

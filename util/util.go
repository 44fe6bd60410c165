package util

import (
	"math"
	"time"
)

// round to 2 decimal places
func Round(value float64) float64 {
	return RoundPlaces(value, 2)
}

func RoundPlaces(value float64, places int) float64 {
	round := math.Pow(10, float64(places))
	return math.Ceil(value*round) / round
}

// DurationToMilliseconds keeps two decimal places of precision
func DurationToMilliseconds(d time.Duration) float64 {
	return Round(float64(d) / float64(time.Millisecond))
}

// UnixOrZero returns 0 for the zero time instead of a large negative number
func UnixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

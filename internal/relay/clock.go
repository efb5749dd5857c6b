package relay

import "time"

// Clock supplies wall time for the poll rate gate.
//
// The relay only compares elapsed time between polls; it never orders
// records by time. Queue order alone defines delivery order.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// DefaultPullFPS is the default engine poll rate.
const DefaultPullFPS = 8.0

// PollIntervalForFPS converts a poll rate to the minimum interval between
// engine polls. Rates below one per second are clamped to one.
func PollIntervalForFPS(fps float64) time.Duration {
	if fps < 1 {
		fps = 1
	}
	return time.Duration(float64(time.Second) / fps)
}

package ports

import "time"

// Clock abstracts wall-clock time so deadline-driven transitions can be
// exercised by time-advancing tests without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

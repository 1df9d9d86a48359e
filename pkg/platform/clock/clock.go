// Package clock is the time port shared by services.
package clock

import "time"

// Clock returns the current time. Services accept one via options so tests
// can pin time.
type Clock func() time.Time

// System is the wall clock in UTC.
func System() time.Time {
	return time.Now().UTC()
}

// Fixed returns a clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

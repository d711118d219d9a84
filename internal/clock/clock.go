// Package clock supplies the current time to the scheduler, either from the
// host or from a battery-backed DS1307 real time clock.
package clock

import "time"

// Clock returns the current wall time.
type Clock interface {
	Now() (time.Time, error)
}

// System is the host clock in a fixed location.
type System struct {
	Location *time.Location
}

// Now returns time.Now in the configured location (local if nil).
func (s System) Now() (time.Time, error) {
	if s.Location == nil {
		return time.Now(), nil
	}
	return time.Now().In(s.Location), nil
}

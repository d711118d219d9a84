package clock

import (
	"sync"
	"time"
)

// Fake is a settable clock for tests.
type Fake struct {
	mu  sync.Mutex
	t   time.Time
	Err error
}

// NewFake returns a clock stopped at t.
func NewFake(t time.Time) *Fake {
	return &Fake{t: t}
}

// Now returns the current fake time, or Err if set.
func (f *Fake) Now() (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return time.Time{}, f.Err
	}
	return f.t, nil
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

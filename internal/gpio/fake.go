package gpio

import (
	"errors"
	"sync"
)

// Sample is one scripted switch reading.
type Sample struct {
	Away    bool
	Holiday bool
}

// FakeReader replays scripted samples. Once the script is used up the last
// sample repeats.
type FakeReader struct {
	mu      sync.Mutex
	samples []Sample
	index   int

	// Closed is set by Close.
	Closed bool

	// ReadError, if set, is returned by Read.
	ReadError error
}

// NewFakeReader returns a reader that plays samples in order.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{samples: samples}
}

// Read returns the next sample.
func (f *FakeReader) Read() (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, false, f.ReadError
	}
	if len(f.samples) == 0 {
		return false, false, errors.New("gpio: no samples configured")
	}

	s := f.samples[f.index]
	if f.index < len(f.samples)-1 {
		f.index++
	}
	return s.Away, s.Holiday, nil
}

// Set replaces the script with a single repeating sample.
func (f *FakeReader) Set(s Sample) {
	f.mu.Lock()
	f.samples = []Sample{s}
	f.index = 0
	f.mu.Unlock()
}

// Close marks the reader closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset rewinds the script.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	f.index = 0
	f.Closed = false
	f.mu.Unlock()
}

// SetReadError makes subsequent reads fail with err, or succeed again if
// err is nil.
func (f *FakeReader) SetReadError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

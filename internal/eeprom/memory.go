package eeprom

import (
	"errors"
	"sync"
)

// ErrInjected is returned by Memory once FailAfter writes have succeeded.
var ErrInjected = errors.New("eeprom: injected write failure")

// Memory is an in-memory store. It doubles as a test double: writes are
// counted and a failure can be injected after a number of writes.
type Memory struct {
	mu   sync.Mutex
	data []byte

	// Writes counts successful StoreByte calls.
	Writes int

	// FailAfter, if > 0, makes every write after the first FailAfter
	// writes return ErrInjected.
	FailAfter int
}

// NewMemory returns an erased store of the given size.
func NewMemory(size int) *Memory {
	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}
	return &Memory{data: data}
}

// LoadByte returns the byte at addr.
func (m *Memory) LoadByte(addr int) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(addr, len(m.data)); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// StoreByte writes b at addr.
func (m *Memory) StoreByte(addr int, b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(addr, len(m.data)); err != nil {
		return err
	}
	if m.FailAfter > 0 && m.Writes >= m.FailAfter {
		return ErrInjected
	}
	m.data[addr] = b
	m.Writes++
	return nil
}

// Size returns the number of addressable bytes.
func (m *Memory) Size() int {
	return len(m.data)
}

// Bytes returns a copy of the image.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

// Reset erases the image and clears counters and injected failures.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.data {
		m.data[i] = Erased
	}
	m.Writes = 0
	m.FailAfter = 0
}

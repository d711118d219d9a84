package eeprom

import (
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/at24cx"
)

// DefaultAT24Address is the 7-bit I2C address of an AT24Cxx with A0..A2 high,
// as fitted on most DS1307/DS3231 RTC breakout boards.
const DefaultAT24Address = 0x57

// The chip ignores its address until an internal write cycle finishes
// (tWR is 5 ms on the AT24C32, 10 ms on some parts).
const (
	writeCycleTimeout = 20 * time.Millisecond
	ackPollInterval   = time.Millisecond
)

// at24Device is the subset of at24cx.Device used here.
type at24Device interface {
	ReadByte(eepromAddress uint16) (uint8, error)
	WriteByte(eepromAddress uint16, value uint8) error
}

// AT24 is an AT24Cxx I2C EEPROM.
type AT24 struct {
	mu   sync.Mutex
	dev  at24Device
	size int
}

// NewAT24 returns a store backed by an AT24Cxx chip on bus.
// size is the chip capacity in bytes (4096 for an AT24C32).
func NewAT24(bus drivers.I2C, address uint16, size int) *AT24 {
	dev := at24cx.New(bus)
	dev.Address = address
	dev.Configure(at24cx.Config{})
	return &AT24{dev: &dev, size: size}
}

// LoadByte returns the byte at addr.
func (s *AT24) LoadByte(addr int) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkRange(addr, s.size); err != nil {
		return 0, err
	}

	b, err := s.dev.ReadByte(uint16(addr))
	if err != nil {
		return 0, fmt.Errorf("at24 read %d: %w", addr, err)
	}
	return b, nil
}

// StoreByte writes b at addr and returns once the chip has finished its
// write cycle.
func (s *AT24) StoreByte(addr int, b byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkRange(addr, s.size); err != nil {
		return err
	}

	if err := s.dev.WriteByte(uint16(addr), b); err != nil {
		return fmt.Errorf("at24 write %d: %w", addr, err)
	}
	return s.awaitWriteCycle(addr)
}

// awaitWriteCycle polls the chip until it acknowledges again. Caller holds mu.
func (s *AT24) awaitWriteCycle(addr int) error {
	deadline := time.Now().Add(writeCycleTimeout)
	for {
		_, err := s.dev.ReadByte(uint16(addr))
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("at24 write %d: chip still busy: %w", addr, err)
		}
		time.Sleep(ackPollInterval)
	}
}

// Size returns the number of addressable bytes.
func (s *AT24) Size() int {
	return s.size
}

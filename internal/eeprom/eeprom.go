// Package eeprom provides byte-addressable persistent stores.
// Backends emulate an EEPROM: a fixed number of bytes, erased to 0xFF.
package eeprom

import (
	"errors"
	"fmt"
)

// Erased is the value of a byte that has never been written.
const Erased byte = 0xFF

var (
	ErrOutOfRange = errors.New("eeprom: address out of range")
	ErrClosed     = errors.New("eeprom: store closed")
)

// Store is a flat, byte-addressable persistent store.
type Store interface {
	// LoadByte returns the byte at addr.
	LoadByte(addr int) (byte, error)

	// StoreByte writes b at addr.
	StoreByte(addr int, b byte) error

	// Size returns the number of addressable bytes.
	Size() int
}

func checkRange(addr, size int) error {
	if addr < 0 || addr >= size {
		return fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, addr, size)
	}
	return nil
}

// ReadBlock reads len(buf) bytes starting at addr.
func ReadBlock(s Store, addr int, buf []byte) error {
	for i := range buf {
		b, err := s.LoadByte(addr + i)
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

// WriteBlock writes data starting at addr, one byte at a time.
func WriteBlock(s Store, addr int, data []byte) error {
	for i, b := range data {
		if err := s.StoreByte(addr+i, b); err != nil {
			return err
		}
	}
	return nil
}

//go:build linux

package i2c

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request to select the target address (linux/i2c-dev.h).
const ioctlI2CSlave = 0x0703

// Bus is an I2C adapter opened through /dev/i2c-N.
type Bus struct {
	mu       sync.Mutex
	f        *os.File
	addr     uint16
	selected bool

	setSlave func(fd uintptr, addr uint16) error
}

// Open opens the i2c-dev node at path, e.g. /dev/i2c-1.
func Open(path string) (*Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", path, err)
	}
	return &Bus{f: f, setSlave: ioctlSetSlave}, nil
}

// Tx writes w and then reads into r on the device at addr.
// The write and read are separate transfers with a STOP in between; the
// register-pointer devices used here (AT24Cxx, DS1307) keep their pointer
// across the STOP.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.selectAddr(addr); err != nil {
		return err
	}

	if len(w) > 0 {
		if _, err := b.f.Write(w); err != nil {
			return fmt.Errorf("i2c write 0x%02x: %w", addr, err)
		}
	}
	if len(r) > 0 {
		if _, err := b.f.Read(r); err != nil {
			return fmt.Errorf("i2c read 0x%02x: %w", addr, err)
		}
	}
	return nil
}

// selectAddr points the adapter at addr unless it already is. Caller holds mu.
func (b *Bus) selectAddr(addr uint16) error {
	if b.selected && b.addr == addr {
		return nil
	}
	if err := b.setSlave(b.f.Fd(), addr); err != nil {
		b.selected = false
		return fmt.Errorf("select i2c address 0x%02x: %w", addr, err)
	}
	b.addr = addr
	b.selected = true
	return nil
}

func ioctlSetSlave(fd uintptr, addr uint16) error {
	return unix.IoctlSetInt(int(fd), ioctlI2CSlave, int(addr))
}

// Close releases the bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}

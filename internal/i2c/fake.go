package i2c

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBusy is returned by a FakeDevice addressed during its write cycle.
var ErrBusy = errors.New("i2c: nack, write cycle in progress")

// FakeDevice emulates a register-pointer I2C device: the first AddrWidth
// bytes of a write set the pointer, remaining bytes are written from the
// pointer on, and reads continue from the pointer. This is how both the
// AT24Cxx EEPROMs and the DS1307 behave.
type FakeDevice struct {
	// Mem is the device memory (register file or EEPROM array).
	Mem []byte

	// AddrWidth is the number of pointer bytes: 2 for AT24Cxx, 1 for DS1307.
	AddrWidth int

	// WriteCycle, if set, makes the device NACK every transfer for that long
	// after a data write, like an AT24Cxx during its internal write cycle.
	WriteCycle time.Duration

	ptr       int
	busyUntil time.Time
}

// NewFakeDevice returns a device with size bytes of memory set to fill.
func NewFakeDevice(size, addrWidth int, fill byte) *FakeDevice {
	mem := make([]byte, size)
	for i := range mem {
		mem[i] = fill
	}
	return &FakeDevice{Mem: mem, AddrWidth: addrWidth}
}

func (d *FakeDevice) tx(w, r []byte) error {
	if time.Now().Before(d.busyUntil) {
		return ErrBusy
	}
	if len(w) >= d.AddrWidth && len(w) > 0 {
		ptr := 0
		for _, b := range w[:d.AddrWidth] {
			ptr = ptr<<8 | int(b)
		}
		d.ptr = ptr
		for _, b := range w[d.AddrWidth:] {
			d.Mem[d.ptr%len(d.Mem)] = b
			d.ptr++
		}
		if len(w) > d.AddrWidth && d.WriteCycle > 0 {
			d.busyUntil = time.Now().Add(d.WriteCycle)
		}
	}
	for i := range r {
		r[i] = d.Mem[d.ptr%len(d.Mem)]
		d.ptr++
	}
	return nil
}

// FakeBus routes transfers to FakeDevices by address.
type FakeBus struct {
	mu      sync.Mutex
	devices map[uint16]*FakeDevice

	// TxError, if set, is returned by every Tx.
	TxError error

	// Count is the number of Tx calls.
	Count int
}

// NewFakeBus returns an empty bus.
func NewFakeBus() *FakeBus {
	return &FakeBus{devices: make(map[uint16]*FakeDevice)}
}

// Attach places dev at addr.
func (b *FakeBus) Attach(addr uint16, dev *FakeDevice) {
	b.mu.Lock()
	b.devices[addr] = dev
	b.mu.Unlock()
}

// Tx performs a write-then-read transfer on the device at addr.
func (b *FakeBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Count++
	if b.TxError != nil {
		return b.TxError
	}
	dev, ok := b.devices[addr]
	if !ok {
		return fmt.Errorf("%w: 0x%02x", errNoDevice, addr)
	}
	return dev.tx(w, r)
}

var errNoDevice = errors.New("i2c: no device")

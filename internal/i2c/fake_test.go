package i2c

import (
	"errors"
	"testing"
	"time"
)

func TestFakeDeviceTwoBytePointer(t *testing.T) {
	bus := NewFakeBus()
	dev := NewFakeDevice(4096, 2, 0xFF)
	bus.Attach(0x57, dev)

	// write 0xAB at 0x0102
	if err := bus.Tx(0x57, []byte{0x01, 0x02, 0xAB}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if dev.Mem[0x0102] != 0xAB {
		t.Errorf("mem[0x0102]: got 0x%02x, want 0xAB", dev.Mem[0x0102])
	}

	r := make([]byte, 2)
	if err := bus.Tx(0x57, []byte{0x01, 0x02}, r); err != nil {
		t.Fatalf("read: %v", err)
	}
	if r[0] != 0xAB || r[1] != 0xFF {
		t.Errorf("read: got % x, want ab ff", r)
	}
}

func TestFakeDeviceOneBytePointer(t *testing.T) {
	bus := NewFakeBus()
	dev := NewFakeDevice(64, 1, 0)
	bus.Attach(0x68, dev)

	if err := bus.Tx(0x68, []byte{0x00, 1, 2, 3}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := make([]byte, 3)
	if err := bus.Tx(0x68, []byte{0x00}, r); err != nil {
		t.Fatalf("read: %v", err)
	}
	if r[0] != 1 || r[1] != 2 || r[2] != 3 {
		t.Errorf("read: got % x, want 01 02 03", r)
	}
}

func TestFakeBusNoDevice(t *testing.T) {
	bus := NewFakeBus()
	err := bus.Tx(0x10, []byte{0}, nil)
	if !errors.Is(err, errNoDevice) {
		t.Errorf("expected errNoDevice, got %v", err)
	}
}

func TestFakeBusTxError(t *testing.T) {
	bus := NewFakeBus()
	bus.Attach(0x57, NewFakeDevice(16, 2, 0))
	bus.TxError = errors.New("nack")

	if err := bus.Tx(0x57, []byte{0, 0}, make([]byte, 1)); err == nil || err.Error() != "nack" {
		t.Errorf("expected nack, got %v", err)
	}
	if bus.Count != 1 {
		t.Errorf("Count: got %d, want 1", bus.Count)
	}
}

func TestFakeDeviceWriteCycle(t *testing.T) {
	bus := NewFakeBus()
	dev := NewFakeDevice(4096, 2, 0xFF)
	dev.WriteCycle = 5 * time.Millisecond
	bus.Attach(0x57, dev)

	if err := bus.Tx(0x57, []byte{0x00, 0x00, 0x01}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := bus.Tx(0x57, []byte{0x00, 0x01, 0x02}, nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("write during cycle: got %v, want ErrBusy", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := bus.Tx(0x57, []byte{0x00, 0x01, 0x02}, nil); err != nil {
		t.Errorf("write after cycle: %v", err)
	}

	// pointer-only writes do not start a cycle
	r := make([]byte, 1)
	time.Sleep(10 * time.Millisecond)
	if err := bus.Tx(0x57, []byte{0x00, 0x01}, r); err != nil || r[0] != 0x02 {
		t.Errorf("read: got 0x%02x, %v", r[0], err)
	}
	if err := bus.Tx(0x57, []byte{0x00, 0x00}, r); err != nil || r[0] != 0x01 {
		t.Errorf("second read: got 0x%02x, %v", r[0], err)
	}
}

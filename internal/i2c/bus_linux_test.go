//go:build linux

package i2c

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestBus returns a bus over a plain file that records address selections
// instead of issuing the ioctl.
func newTestBus(t *testing.T) (*Bus, *[]uint16) {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "i2c-0"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	var selected []uint16
	b := &Bus{f: f, setSlave: func(_ uintptr, addr uint16) error {
		selected = append(selected, addr)
		return nil
	}}
	return b, &selected
}

func TestBusSelectsAddressZero(t *testing.T) {
	b, selected := newTestBus(t)

	if err := b.Tx(0x00, []byte{0x01}, nil); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if len(*selected) != 1 || (*selected)[0] != 0x00 {
		t.Errorf("selections: got %v, want [0]", *selected)
	}
}

func TestBusSelectsOnlyOnAddressChange(t *testing.T) {
	b, selected := newTestBus(t)

	for _, addr := range []uint16{0x57, 0x57, 0x68, 0x57} {
		if err := b.Tx(addr, []byte{0x00}, nil); err != nil {
			t.Fatalf("Tx 0x%02x: %v", addr, err)
		}
	}
	want := []uint16{0x57, 0x68, 0x57}
	if len(*selected) != len(want) {
		t.Fatalf("selections: got %v, want %v", *selected, want)
	}
	for i := range want {
		if (*selected)[i] != want[i] {
			t.Errorf("selection %d: got 0x%02x, want 0x%02x", i, (*selected)[i], want[i])
		}
	}
}

func TestBusReselectsAfterFailure(t *testing.T) {
	b, selected := newTestBus(t)
	fail := true
	record := b.setSlave
	b.setSlave = func(fd uintptr, addr uint16) error {
		if fail {
			return errors.New("ebusy")
		}
		return record(fd, addr)
	}

	if err := b.Tx(0x57, []byte{0x00}, nil); err == nil {
		t.Fatal("expected select error")
	}
	fail = false
	if err := b.Tx(0x57, []byte{0x00}, nil); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if len(*selected) != 1 {
		t.Errorf("selections: got %v, want one retry", *selected)
	}
}

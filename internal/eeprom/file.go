package eeprom

import (
	"bytes"
	"fmt"
	"os"
	"sync"
)

// File stores the image in a regular file of fixed size.
type File struct {
	mu     sync.Mutex
	f      *os.File
	size   int
	closed bool
}

// OpenFile opens the image at path, creating an erased image of size bytes
// if the file does not exist. An existing image shorter than size is padded
// with erased bytes.
func OpenFile(path string, size int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat image %q: %w", path, err)
	}

	if have := int(info.Size()); have < size {
		pad := bytes.Repeat([]byte{Erased}, size-have)
		if _, err := f.WriteAt(pad, int64(have)); err != nil {
			f.Close()
			return nil, fmt.Errorf("erase image %q: %w", path, err)
		}
	}

	return &File{f: f, size: size}, nil
}

// LoadByte returns the byte at addr.
func (s *File) LoadByte(addr int) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if err := checkRange(addr, s.size); err != nil {
		return 0, err
	}

	var buf [1]byte
	if _, err := s.f.ReadAt(buf[:], int64(addr)); err != nil {
		return 0, fmt.Errorf("read %d: %w", addr, err)
	}
	return buf[0], nil
}

// StoreByte writes b at addr.
func (s *File) StoreByte(addr int, b byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := checkRange(addr, s.size); err != nil {
		return err
	}

	if _, err := s.f.WriteAt([]byte{b}, int64(addr)); err != nil {
		return fmt.Errorf("write %d: %w", addr, err)
	}
	return nil
}

// Size returns the number of addressable bytes.
func (s *File) Size() int {
	return s.size
}

// Close syncs and closes the image file.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return fmt.Errorf("sync image: %w", err)
	}
	return s.f.Close()
}

// Package recordstore keeps temperature profiles in fixed-size records on a
// byte-addressable store and holds exactly one of them in working memory.
//
// Record layout (RecordSize bytes, regardless of entry count):
//
//	[id:1][size:1][name:MaxNameSize, NUL padded][size × (slot:1, setpoint:1)]
//
// A record whose id byte is 0xFF (-1) is empty.
package recordstore

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sweeney/setpoint-scheduler/internal/eeprom"
	"github.com/sweeney/setpoint-scheduler/internal/profile"
)

// RecordSize is the number of bytes reserved per profile.
const RecordSize = 2 + profile.MaxNameSize + 2*profile.MaxEntries

const emptyMarker = byte(0xFF) // profile.NoID as a byte

var (
	ErrNotFound      = errors.New("recordstore: profile not found")
	ErrFull          = errors.New("recordstore: no free record")
	ErrUninitialized = errors.New("recordstore: store not initialized")
	ErrInvalidID     = errors.New("recordstore: invalid profile id")
	ErrCorrupt       = errors.New("recordstore: corrupt record")
)

// Layout places Count records back to back starting at Base.
type Layout struct {
	Base  int
	Count int
}

// Bytes returns the number of store bytes the layout occupies.
func (l Layout) Bytes() int {
	return l.Count * RecordSize
}

// Manager maps profile ids to records and serializes a single working
// profile to and from them.
//
// Not safe for concurrent use; a load, mutate, save sequence must be
// bracketed by the caller.
type Manager struct {
	store   eeprom.Store
	layout  Layout
	profile profile.Profile
}

// New returns a manager for the records described by layout on store.
// A nil store or an empty layout leaves the manager uninitialized; every
// operation then returns ErrUninitialized.
func New(store eeprom.Store, layout Layout) *Manager {
	m := &Manager{store: store, layout: layout}
	m.profile.Reset(profile.NoID)
	return m
}

// Layout returns the record layout.
func (m *Manager) Layout() Layout {
	return m.layout
}

// Profile returns the working profile. It stays valid until the next Load.
func (m *Manager) Profile() *profile.Profile {
	return &m.profile
}

func (m *Manager) initialized() error {
	if m.store == nil || m.layout.Count <= 0 || m.layout.Base < 0 {
		return ErrUninitialized
	}
	if end := m.layout.Base + m.layout.Bytes(); end > m.store.Size() {
		return fmt.Errorf("%w: layout ends at %d, store has %d bytes", ErrUninitialized, end, m.store.Size())
	}
	return nil
}

func (m *Manager) recordAddr(i int) int {
	return m.layout.Base + i*RecordSize
}

// find returns the address of the first record whose id byte equals id.
// Passing profile.NoID finds the first empty record.
func (m *Manager) find(id int8) (int, bool, error) {
	for i := 0; i < m.layout.Count; i++ {
		addr := m.recordAddr(i)
		b, err := m.store.LoadByte(addr)
		if err != nil {
			return 0, false, fmt.Errorf("read record %d: %w", i, err)
		}
		if int8(b) == id {
			return addr, true, nil
		}
	}
	return 0, false, nil
}

// Exists reports whether a record with id is stored.
func (m *Manager) Exists(id int8) (bool, error) {
	if err := m.initialized(); err != nil {
		return false, err
	}
	if id == profile.NoID {
		return false, nil
	}
	_, ok, err := m.find(id)
	return ok, err
}

// Load reads the record for id into the working profile.
// On error the working profile is left as it was, unless the record turned
// out to be corrupt, in which case it holds whatever was decoded.
func (m *Manager) Load(id int8) error {
	if err := m.initialized(); err != nil {
		return err
	}
	if id == profile.NoID {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	addr, ok, err := m.find(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	var rec [RecordSize]byte
	if err := eeprom.ReadBlock(m.store, addr, rec[:]); err != nil {
		return fmt.Errorf("read profile %d: %w", id, err)
	}
	return decode(rec[:], &m.profile)
}

// Save writes the working profile to its record, or to the first empty
// record if it has none yet.
// There is no rollback: if a write fails the record may be half written and
// the working profile keeps its changes.
func (m *Manager) Save() error {
	if err := m.initialized(); err != nil {
		return err
	}
	id := m.profile.ID()
	if id == profile.NoID {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	addr, ok, err := m.find(id)
	if err != nil {
		return err
	}
	if !ok {
		addr, ok, err = m.find(profile.NoID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrFull
		}
	}

	if err := eeprom.WriteBlock(m.store, addr, encode(&m.profile)); err != nil {
		return fmt.Errorf("write profile %d: %w", id, err)
	}
	log.Debug().Int("id", int(id)).Int("addr", addr).Int("entries", m.profile.Len()).Msg("profile saved")
	return nil
}

// Remove marks the record of the working profile empty. The record data is
// left in place and the working profile is not touched.
func (m *Manager) Remove() error {
	if err := m.initialized(); err != nil {
		return err
	}
	id := m.profile.ID()
	if id == profile.NoID {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	addr, ok, err := m.find(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return m.store.StoreByte(addr, emptyMarker)
}

// Format marks every record empty.
func (m *Manager) Format() error {
	if err := m.initialized(); err != nil {
		return err
	}
	for i := 0; i < m.layout.Count; i++ {
		if err := m.store.StoreByte(m.recordAddr(i), emptyMarker); err != nil {
			return fmt.Errorf("format record %d: %w", i, err)
		}
	}
	log.Info().Int("records", m.layout.Count).Msg("profile store formatted")
	return nil
}

// FreeSpace returns the number of empty records.
func (m *Manager) FreeSpace() (int, error) {
	if err := m.initialized(); err != nil {
		return 0, err
	}
	free := 0
	for i := 0; i < m.layout.Count; i++ {
		b, err := m.store.LoadByte(m.recordAddr(i))
		if err != nil {
			return 0, fmt.Errorf("read record %d: %w", i, err)
		}
		if b == emptyMarker {
			free++
		}
	}
	return free, nil
}

// Used returns the number of occupied records.
func (m *Manager) Used() (int, error) {
	free, err := m.FreeSpace()
	if err != nil {
		return 0, err
	}
	return m.layout.Count - free, nil
}

// IDs returns the ids of all stored profiles in record order.
func (m *Manager) IDs() ([]int8, error) {
	if err := m.initialized(); err != nil {
		return nil, err
	}
	var ids []int8
	for i := 0; i < m.layout.Count; i++ {
		b, err := m.store.LoadByte(m.recordAddr(i))
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", i, err)
		}
		if b != emptyMarker {
			ids = append(ids, int8(b))
		}
	}
	return ids, nil
}

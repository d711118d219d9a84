// Package schedule decides which temperature set point applies at a given
// time. A persisted table maps day, AM/PM and season to a profile id; the
// profile itself is loaded from the record store on every lookup.
//
// The schedule day does not begin at midnight. Every lookup first moves the
// time back by the AM begin offset (6 hours by default), so 00:00..05:59 is
// looked up as the previous day's PM half and "AM" covers 06:00..17:59.
package schedule

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sanity-io/litter"
	"github.com/sweeney/setpoint-scheduler/internal/eeprom"
	"github.com/sweeney/setpoint-scheduler/internal/recordstore"
)

// DefaultAMBegin is the hour at which the schedule day starts.
const DefaultAMBegin = 6

const slotDuration = 15 * time.Minute

var (
	// ErrNoSetPoint means no profile applies or the profile has no entry.
	// Callers should leave the heating as it is.
	ErrNoSetPoint    = errors.New("schedule: no set point")
	ErrUninitialized = errors.New("schedule: store not initialized")
	ErrOutOfRange    = errors.New("schedule: index out of range")
)

// Option configures a Manager.
type Option func(*Manager)

// WithAMBegin sets the hour (0..11) at which the schedule day starts.
func WithAMBegin(hours int) Option {
	return func(m *Manager) {
		m.amBegin = time.Duration(hours) * time.Hour
	}
}

// Manager owns the schedule table and brackets every profile session.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	store    eeprom.Store
	addr     int
	profiles *recordstore.Manager
	amBegin  time.Duration
	table    Table
	holiday  bool
}

// New returns a manager whose table lives at addr on store and whose
// profiles are kept by profiles. Call Load before use.
func New(store eeprom.Store, addr int, profiles *recordstore.Manager, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		addr:     addr,
		profiles: profiles,
		amBegin:  DefaultAMBegin * time.Hour,
		table:    NewTable(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) initialized() error {
	if m.store == nil || m.addr < 0 || m.addr+TableSize > m.store.Size() {
		return ErrUninitialized
	}
	return nil
}

// Load reads the table from the store.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initialized(); err != nil {
		return err
	}

	buf := make([]byte, TableSize)
	if err := eeprom.ReadBlock(m.store, m.addr, buf); err != nil {
		return fmt.Errorf("read schedule table: %w", err)
	}
	if err := m.table.UnmarshalBinary(buf); err != nil {
		return err
	}
	log.Debug().Int("addr", m.addr).Stringer("season", m.table.Season).Msg("schedule table loaded")
	return nil
}

// save writes the whole table block. Caller holds mu.
func (m *Manager) save() error {
	if err := m.initialized(); err != nil {
		return err
	}
	buf, _ := m.table.MarshalBinary()
	if err := eeprom.WriteBlock(m.store, m.addr, buf); err != nil {
		return fmt.Errorf("write schedule table: %w", err)
	}
	return nil
}

func checkCell(d Day, h Half, s Season) error {
	if d < 0 || d >= NumDays || h < 0 || h >= NumHalves || s < 0 || s >= NumSeasons {
		return fmt.Errorf("%w: %d/%d/%d", ErrOutOfRange, d, h, s)
	}
	return nil
}

// SetProfile assigns profile id (or Unset) to a table cell and persists the
// table. The profile does not need to exist yet.
func (m *Manager) SetProfile(id int8, d Day, h Half, s Season) error {
	if err := checkCell(d, h, s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.Profiles[d][h][s] = id
	return m.save()
}

// Profile returns the profile id assigned to a table cell.
func (m *Manager) Profile(d Day, h Half, s Season) int8 {
	if checkCell(d, h, s) != nil {
		return Unset
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Profiles[d][h][s]
}

// SetSeason selects the active season and persists the table.
func (m *Manager) SetSeason(s Season) error {
	if s < 0 || s >= NumSeasons {
		return fmt.Errorf("%w: season %d", ErrOutOfRange, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.Season = s
	return m.save()
}

// Season returns the active season.
func (m *Manager) Season() Season {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Season
}

// SetVacationTemperature sets the away set points and persists the table.
func (m *Manager) SetVacationTemperature(winter, summer int8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.Vacation[Winter] = winter
	m.table.Vacation[Summer] = summer
	return m.save()
}

// VacationTemperature returns the away set point for the active season.
func (m *Manager) VacationTemperature() int8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Vacation[m.table.Season]
}

// SetHoliday makes lookups use the Holiday row instead of the weekday.
// The flag is not persisted.
func (m *Manager) SetHoliday(on bool) {
	m.mu.Lock()
	m.holiday = on
	m.mu.Unlock()
}

// Holiday reports whether holiday lookups are active.
func (m *Manager) Holiday() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holiday
}

// AMBegin returns the offset of the schedule day from midnight.
func (m *Manager) AMBegin() time.Duration {
	return m.amBegin
}

// Table returns a copy of the schedule table.
func (m *Manager) Table() Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table
}

// Clear unsets every table cell and persists the table.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.clearProfiles()
	return m.save()
}

// Dump writes a readable dump of the table followed by every stored
// profile.
func (m *Manager) Dump(w io.Writer) error {
	if _, err := io.WriteString(w, litter.Sdump(m.Table())); err != nil {
		return err
	}
	profiles, err := m.Profiles()
	if err != nil {
		return err
	}
	for _, p := range profiles {
		fmt.Fprintf(w, "\nprofile %d %q\n", p.ID(), p.Name())
		for _, e := range p.Entries() {
			offset := time.Duration(e.Slot) * slotDuration
			fmt.Fprintf(w, "  slot %2d  +%02d:%02d  %d\n", e.Slot, int(offset.Hours()), int(offset.Minutes())%60, e.SetPoint)
		}
	}
	return nil
}

package schedule

import (
	"errors"
	"fmt"

	"github.com/sweeney/setpoint-scheduler/internal/profile"
	"github.com/sweeney/setpoint-scheduler/internal/recordstore"
)

// EditProfile loads profile id (or starts an empty one if it is not stored),
// applies fn and saves the result, all under the manager lock.
// If fn fails nothing is saved.
func (m *Manager) EditProfile(id int8, fn func(p *profile.Profile) error) error {
	if id == profile.NoID {
		return fmt.Errorf("%w: %d", recordstore.ErrInvalidID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.profiles.Load(id)
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		m.profiles.Profile().Reset(id)
	case err != nil:
		return err
	}

	p := m.profiles.Profile()
	if err := fn(p); err != nil {
		return err
	}
	p.SetID(id)
	return m.profiles.Save()
}

// ReadProfile returns a copy of stored profile id.
func (m *Manager) ReadProfile(id int8) (profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.profiles.Load(id); err != nil {
		return profile.Profile{}, err
	}
	return *m.profiles.Profile(), nil
}

// DeleteProfile marks the record of profile id empty. Table cells that
// still reference it yield no set point.
func (m *Manager) DeleteProfile(id int8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.profiles.Load(id); err != nil {
		return err
	}
	return m.profiles.Remove()
}

// Profiles returns copies of all stored profiles.
func (m *Manager) Profiles() ([]profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.profiles.IDs()
	if err != nil {
		return nil, err
	}
	out := make([]profile.Profile, 0, len(ids))
	for _, id := range ids {
		if err := m.profiles.Load(id); err != nil {
			return nil, err
		}
		out = append(out, *m.profiles.Profile())
	}
	return out, nil
}

// FormatProfiles empties the profile store. The table is not touched.
func (m *Manager) FormatProfiles() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles.Format()
}

// FreeProfiles returns the number of empty profile records.
func (m *Manager) FreeProfiles() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles.FreeSpace()
}

// Package seed loads a schedule from a JSON file into the persistent store.
//
// Example:
//
//	{
//	  "clear": true,
//	  "season": "winter",
//	  "vacation": {"summer": 85, "winter": 50},
//	  "profiles": [
//	    {"id": 3, "name": "workday", "entries": [
//	      {"time": "01:00", "set_point": 68},
//	      {"time": "08:00", "set_point": 72}
//	    ]}
//	  ],
//	  "table": [
//	    {"day": "monday", "half": "am", "season": "winter", "profile": 3}
//	  ]
//	}
//
// Entry times are offsets from the start of the half day.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sweeney/setpoint-scheduler/internal/profile"
	"github.com/sweeney/setpoint-scheduler/internal/schedule"
)

var ErrInvalid = errors.New("seed: invalid schedule file")

// File is the seed document.
type File struct {
	Clear    bool         `json:"clear"`
	Season   string       `json:"season,omitempty"`
	Vacation *Vacation    `json:"vacation,omitempty"`
	Profiles []Profile    `json:"profiles"`
	Table    []Assignment `json:"table"`
}

// Vacation holds the away set points.
type Vacation struct {
	Summer int8 `json:"summer"`
	Winter int8 `json:"winter"`
}

// Profile is a stored profile. Entries replace the stored ones.
type Profile struct {
	ID      int8    `json:"id"`
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Entry is a set point at an offset from the start of the half day, given
// either as "HH:MM" in Time or as a quarter-hour Slot.
type Entry struct {
	Time     string `json:"time,omitempty"`
	Slot     *int   `json:"slot,omitempty"`
	SetPoint int8   `json:"set_point"`
}

// Assignment puts a profile in one table cell.
type Assignment struct {
	Day     string `json:"day"`
	Half    string `json:"half"`
	Season  string `json:"season"`
	Profile int8   `json:"profile"`
}

// Load decodes a seed document. Unknown fields are rejected.
func Load(r io.Reader) (File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return f, nil
}

// LoadFile decodes the seed document at path.
func LoadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Load(fh)
}

// slot returns the quarter-hour slot of e.
func (e Entry) slot() (int, error) {
	if e.Slot != nil {
		return *e.Slot, nil
	}
	d, err := time.ParseDuration(strings.Replace(e.Time, ":", "h", 1) + "m")
	if err != nil || e.Time == "" {
		return 0, fmt.Errorf("%w: time %q", ErrInvalid, e.Time)
	}
	if d%(15*time.Minute) != 0 {
		return 0, fmt.Errorf("%w: time %q is not on a quarter hour", ErrInvalid, e.Time)
	}
	return int(d / (15 * time.Minute)), nil
}

// Validate checks f without touching any store.
func (f File) Validate() error {
	if f.Season != "" {
		if _, err := schedule.ParseSeason(f.Season); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	for _, p := range f.Profiles {
		if p.ID < 0 {
			return fmt.Errorf("%w: profile id %d", ErrInvalid, p.ID)
		}
		if len(p.Entries) > profile.MaxEntries {
			return fmt.Errorf("%w: profile %d has %d entries", ErrInvalid, p.ID, len(p.Entries))
		}
		for _, e := range p.Entries {
			s, err := e.slot()
			if err != nil {
				return err
			}
			if s < 0 || s >= profile.SlotsPerHalfDay {
				return fmt.Errorf("%w: profile %d slot %d", ErrInvalid, p.ID, s)
			}
		}
	}
	for _, a := range f.Table {
		if _, _, _, err := a.cell(); err != nil {
			return err
		}
	}
	return nil
}

func (a Assignment) cell() (schedule.Day, schedule.Half, schedule.Season, error) {
	d, err := parseDay(a.Day)
	if err != nil {
		return 0, 0, 0, err
	}
	h, err := parseHalf(a.Half)
	if err != nil {
		return 0, 0, 0, err
	}
	s, err := schedule.ParseSeason(a.Season)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return d, h, s, nil
}

func parseDay(s string) (schedule.Day, error) {
	for d := schedule.Sunday; d < schedule.NumDays; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: day %q", ErrInvalid, s)
}

func parseHalf(s string) (schedule.Half, error) {
	for h := schedule.AM; h < schedule.NumHalves; h++ {
		if strings.EqualFold(s, h.String()) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: half %q", ErrInvalid, s)
}

// Apply validates f and writes it through m. With Clear set, the table and
// profile store are emptied first.
func Apply(m *schedule.Manager, f File) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if f.Clear {
		if err := m.FormatProfiles(); err != nil {
			return fmt.Errorf("format profiles: %w", err)
		}
		if err := m.Clear(); err != nil {
			return fmt.Errorf("clear table: %w", err)
		}
	}

	for _, sp := range f.Profiles {
		err := m.EditProfile(sp.ID, func(p *profile.Profile) error {
			p.Clear()
			p.SetName(sp.Name)
			for _, e := range sp.Entries {
				slot, _ := e.slot()
				if _, err := p.Add(slot, e.SetPoint); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("profile %d: %w", sp.ID, err)
		}
	}

	for _, a := range f.Table {
		d, h, s, _ := a.cell()
		if err := m.SetProfile(a.Profile, d, h, s); err != nil {
			return fmt.Errorf("assign %s %s %s: %w", d, h, s, err)
		}
	}

	if f.Season != "" {
		s, _ := schedule.ParseSeason(f.Season)
		if err := m.SetSeason(s); err != nil {
			return err
		}
	}
	if f.Vacation != nil {
		if err := m.SetVacationTemperature(f.Vacation.Winter, f.Vacation.Summer); err != nil {
			return err
		}
	}

	log.Info().Int("profiles", len(f.Profiles)).Int("assignments", len(f.Table)).Bool("clear", f.Clear).Msg("schedule imported")
	return nil
}

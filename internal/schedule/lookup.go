package schedule

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sweeney/setpoint-scheduler/internal/profile"
)

// SetPointFor returns the set point that applies at t: the last entry at or
// before t in the current half day, or the last entry of the previous half
// day if t is before the first entry.
func (m *Manager) SetPointFor(t time.Time) (int8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.scheduleTime(t)
	p, err := m.loadProfile(at)
	if err != nil {
		return 0, err
	}

	if i := p.IndexOf(quarterHour(at), profile.MatchPreceding); i >= 0 {
		e, _ := p.At(i)
		return e.SetPoint, nil
	}

	// Earlier than the first entry: the previous half day is still in force
	prev := halfStart(at).Add(-time.Second)
	p, err = m.loadProfile(prev)
	if err != nil {
		return 0, err
	}
	e, ok := p.At(p.Len() - 1)
	if !ok {
		return 0, fmt.Errorf("%w: profile %d is empty", ErrNoSetPoint, p.ID())
	}
	return e.SetPoint, nil
}

// NextSetPointChange returns when the set point next changes at or after t.
// A change at exactly t is returned as t.
func (m *Manager) NextSetPointChange(t time.Time) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.scheduleTime(t)
	p, err := m.loadProfile(at)
	if err != nil {
		return time.Time{}, err
	}

	start := halfStart(at)
	if slot := ceilQuarterHour(at); slot < profile.SlotsPerHalfDay {
		if i := p.IndexOf(slot, profile.MatchFollowing); i >= 0 {
			e, _ := p.At(i)
			return m.wallClock(start, e.Slot, t.Location()), nil
		}
	}

	// Nothing left today: the first entry of the next half day
	next := nextHalfStart(start)
	p, err = m.loadProfile(next)
	if err != nil {
		return time.Time{}, err
	}
	e, ok := p.At(0)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: profile %d is empty", ErrNoSetPoint, p.ID())
	}
	return m.wallClock(next, e.Slot, t.Location()), nil
}

// scheduleTime moves t back by the AM begin offset on the wall clock and
// labels the result UTC, so half-day arithmetic never crosses a DST
// transition. Weekday and hour of the result pick the table cell.
func (m *Manager) scheduleTime(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, t.Hour()-m.amBeginHours(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func (m *Manager) amBeginHours() int {
	return int(m.amBegin / time.Hour)
}

// loadProfile loads the profile for the adjusted time at into the record
// store's working copy. Caller holds mu.
func (m *Manager) loadProfile(at time.Time) (*profile.Profile, error) {
	day := DayOf(at.Weekday())
	if m.holiday {
		day = Holiday
	}
	half := AM
	if at.Hour() >= 12 {
		half = PM
	}
	season := m.table.Season

	id := m.table.Profiles[day][half][season]
	if id == Unset {
		return nil, fmt.Errorf("%w: no profile for %s %s %s", ErrNoSetPoint, day, half, season)
	}
	if err := m.profiles.Load(id); err != nil {
		log.Warn().Err(err).Int("id", int(id)).Stringer("day", day).Stringer("half", half).Msg("profile load failed")
		return nil, fmt.Errorf("%w: profile %d: %w", ErrNoSetPoint, id, err)
	}
	return m.profiles.Profile(), nil
}

// wallClock converts a slot in the half day starting at start (schedule
// time) back to wall-clock time in loc.
func (m *Manager) wallClock(start time.Time, slot uint8, loc *time.Location) time.Time {
	y, mo, d := start.Date()
	return time.Date(y, mo, d, start.Hour()+m.amBeginHours(), int(slot)*15, 0, 0, loc)
}

// quarterHour returns the slot containing t.
func quarterHour(t time.Time) int {
	return (t.Hour()%12)*4 + t.Minute()/15
}

// ceilQuarterHour returns the first slot starting at or after t. It returns
// SlotsPerHalfDay when that slot is in the next half day.
func ceilQuarterHour(t time.Time) int {
	slot := quarterHour(t)
	if t.Minute()%15 != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		slot++
	}
	return slot
}

// halfStart returns 00:00 or 12:00 of the half day containing t.
func halfStart(t time.Time) time.Time {
	y, mo, d := t.Date()
	h := 0
	if t.Hour() >= 12 {
		h = 12
	}
	return time.Date(y, mo, d, h, 0, 0, 0, t.Location())
}

// nextHalfStart returns the start of the half day after the one starting at
// start.
func nextHalfStart(start time.Time) time.Time {
	y, mo, d := start.Date()
	return time.Date(y, mo, d, start.Hour()+12, 0, 0, 0, start.Location())
}

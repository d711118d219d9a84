// Package profile holds a single half-day temperature profile: a small,
// fixed-capacity list of (quarter-hour slot, set point) pairs kept in
// ascending slot order.
// This package has NO external dependencies and performs no I/O.
package profile

import "errors"

const (
	// MaxEntries is the number of set points a profile can hold.
	MaxEntries = 10

	// MaxNameSize is the number of bytes reserved for the name, including
	// the terminating NUL in the persisted form.
	MaxNameSize = 12

	// SlotsPerHalfDay is the number of quarter-hours in 12 hours.
	SlotsPerHalfDay = 48

	// NoID marks a profile that has no id (and an empty record on disk).
	NoID int8 = -1
)

var (
	ErrFull        = errors.New("profile: full")
	ErrNotFound    = errors.New("profile: slot not found")
	ErrInvalidSlot = errors.New("profile: slot out of range")
)

// Match selects how IndexOf treats a slot that has no exact entry.
type Match int

const (
	// MatchPreceding returns the exact entry or the one before it.
	MatchPreceding Match = -1
	// MatchExact returns only an exact entry.
	MatchExact Match = 0
	// MatchFollowing returns the exact entry or the one after it.
	MatchFollowing Match = 1
)

// Entry is one set point within a profile.
type Entry struct {
	Slot     uint8 // quarter-hour within the half day, 0..47
	SetPoint int8
}

// Profile is an ordered set of entries with unique slots.
// The zero value is an empty profile with ID 0; use New for an unused one.
type Profile struct {
	id      int8
	name    string
	entries [MaxEntries]Entry
	size    int
}

// New returns an empty profile with the given id.
func New(id int8) *Profile {
	return &Profile{id: id}
}

// ID returns the profile id.
func (p *Profile) ID() int8 { return p.id }

// SetID changes the id without touching the entries.
func (p *Profile) SetID(id int8) { p.id = id }

// Reset sets the id and clears entries and name.
func (p *Profile) Reset(id int8) {
	p.id = id
	p.Clear()
}

// Name returns the display name.
func (p *Profile) Name() string { return p.name }

// SetName sets the display name, truncated to MaxNameSize-1 bytes.
func (p *Profile) SetName(name string) {
	if len(name) > MaxNameSize-1 {
		name = name[:MaxNameSize-1]
	}
	p.name = name
}

// Len returns the number of entries.
func (p *Profile) Len() int { return p.size }

// Entries returns a copy of the entries in slot order.
func (p *Profile) Entries() []Entry {
	out := make([]Entry, p.size)
	copy(out, p.entries[:p.size])
	return out
}

// At returns the entry at index.
func (p *Profile) At(index int) (Entry, bool) {
	if index < 0 || index >= p.size {
		return Entry{}, false
	}
	return p.entries[index], true
}

// Add inserts a set point for slot, or overwrites the set point if the slot
// already exists. It returns the index of the entry.
// A full profile is left unchanged and ErrFull is returned.
func (p *Profile) Add(slot int, setPoint int8) (int, error) {
	if slot < 0 || slot >= SlotsPerHalfDay {
		return -1, ErrInvalidSlot
	}

	index := p.findIndex(slot)
	if index < p.size && int(p.entries[index].Slot) == slot {
		p.entries[index].SetPoint = setPoint
		return index, nil
	}

	if p.size >= MaxEntries {
		return -1, ErrFull
	}

	// Shift right to open a hole at index
	copy(p.entries[index+1:p.size+1], p.entries[index:p.size])
	p.entries[index] = Entry{Slot: uint8(slot), SetPoint: setPoint}
	p.size++
	return index, nil
}

// Remove deletes the entry for slot and returns its former index.
func (p *Profile) Remove(slot int) (int, error) {
	index := p.IndexOf(slot, MatchExact)
	if index < 0 {
		return -1, ErrNotFound
	}

	copy(p.entries[index:p.size-1], p.entries[index+1:p.size])
	p.size--
	p.entries[p.size] = Entry{}
	return index, nil
}

// Replace removes oldSlot and adds newSlot with setPoint.
//
// If newSlot differs from oldSlot and already has an entry, that entry is
// overwritten, so the profile ends up one entry shorter.
func (p *Profile) Replace(oldSlot, newSlot int, setPoint int8) (int, error) {
	p.Remove(oldSlot)
	return p.Add(newSlot, setPoint)
}

// Get returns the set point for exactly slot.
func (p *Profile) Get(slot int) (int8, bool) {
	index := p.IndexOf(slot, MatchExact)
	if index < 0 {
		return 0, false
	}
	return p.entries[index].SetPoint, true
}

// IndexOf returns the index of the entry for slot, or -1.
// When there is no exact entry, m decides whether the preceding or following
// entry is returned instead.
func (p *Profile) IndexOf(slot int, m Match) int {
	if p.size == 0 {
		return -1
	}

	index := p.findIndex(slot)
	switch {
	case index < p.size && int(p.entries[index].Slot) == slot:
		return index
	case m > 0 && index < p.size:
		return index
	case m < 0 && index > 0:
		return index - 1
	}
	return -1
}

// Clear removes all entries and the name. The id is kept.
func (p *Profile) Clear() {
	p.size = 0
	p.name = ""
	p.entries = [MaxEntries]Entry{}
}

// findIndex returns the index of the first entry whose slot is >= slot,
// or Len() if there is none.
func (p *Profile) findIndex(slot int) int {
	for i := 0; i < p.size; i++ {
		if int(p.entries[i].Slot) >= slot {
			return i
		}
	}
	return p.size
}

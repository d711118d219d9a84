package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Day indexes the schedule table. Sunday..Saturday match time.Weekday.
type Day int

const (
	Sunday Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Holiday
	NumDays
)

var dayNames = [NumDays]string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "HOLIDAY"}

func (d Day) String() string {
	if d < 0 || d >= NumDays {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// DayOf returns the table row for a weekday.
func DayOf(w time.Weekday) Day {
	return Day(w)
}

// Half is the AM or PM half of a schedule day.
type Half int

const (
	AM Half = iota
	PM
	NumHalves
)

func (h Half) String() string {
	switch h {
	case AM:
		return "AM"
	case PM:
		return "PM"
	}
	return fmt.Sprintf("Half(%d)", int(h))
}

// Season selects the summer or winter column.
type Season int

const (
	Summer Season = iota
	Winter
	NumSeasons
)

func (s Season) String() string {
	switch s {
	case Summer:
		return "SUMMER"
	case Winter:
		return "WINTER"
	}
	return fmt.Sprintf("Season(%d)", int(s))
}

// ParseSeason accepts "summer" or "winter" in any case.
func ParseSeason(s string) (Season, error) {
	switch s {
	case "summer", "SUMMER", "Summer":
		return Summer, nil
	case "winter", "WINTER", "Winter":
		return Winter, nil
	}
	return 0, fmt.Errorf("unknown season %q", s)
}

// Unset marks a table cell with no profile.
const Unset int8 = -1

// TableSize is the length of the persisted table block.
const TableSize = 3 + int(NumDays)*int(NumHalves)*int(NumSeasons)

var errTableSize = errors.New("schedule: table block has wrong size")

// Table is the persisted schedule: the active season, one vacation set
// point per season, and a profile id per day, half and season.
type Table struct {
	Season   Season
	Vacation [NumSeasons]int8
	Profiles [NumDays][NumHalves][NumSeasons]int8
}

// NewTable returns a table with every cell unset.
func NewTable() Table {
	var t Table
	t.clearProfiles()
	return t
}

func (t *Table) clearProfiles() {
	for d := range t.Profiles {
		for h := range t.Profiles[d] {
			for s := range t.Profiles[d][h] {
				t.Profiles[d][h][s] = Unset
			}
		}
	}
}

// MarshalBinary encodes the table as
// [season][vacation summer][vacation winter][day × half × season ids].
func (t Table) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, TableSize)
	buf = append(buf, byte(t.Season), byte(t.Vacation[Summer]), byte(t.Vacation[Winter]))
	for d := range t.Profiles {
		for h := range t.Profiles[d] {
			for s := range t.Profiles[d][h] {
				buf = append(buf, byte(t.Profiles[d][h][s]))
			}
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a block written by MarshalBinary.
// A season byte outside the known seasons (an erased store) reads as Summer.
func (t *Table) UnmarshalBinary(data []byte) error {
	if len(data) != TableSize {
		return fmt.Errorf("%w: %d", errTableSize, len(data))
	}

	t.Season = Season(data[0])
	if t.Season < 0 || t.Season >= NumSeasons {
		t.Season = Summer
	}
	t.Vacation[Summer] = int8(data[1])
	t.Vacation[Winter] = int8(data[2])

	i := 3
	for d := range t.Profiles {
		for h := range t.Profiles[d] {
			for s := range t.Profiles[d][h] {
				t.Profiles[d][h][s] = int8(data[i])
				i++
			}
		}
	}
	return nil
}

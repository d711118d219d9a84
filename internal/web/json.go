package web

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sweeney/setpoint-scheduler/internal/profile"
	"github.com/sweeney/setpoint-scheduler/internal/schedule"
)

// ScheduleJSON is the /schedule.json document.
type ScheduleJSON struct {
	Schedule ScheduleInner `json:"schedule"`
}

// ScheduleInner holds the table and the stored profiles.
// Unset table cells are null.
type ScheduleInner struct {
	Season   string                                 `json:"season"`
	Vacation map[string]int8                        `json:"vacation"`
	Days     map[string]map[string]map[string]*int8 `json:"days"`
	Profiles []ProfileJSON                          `json:"profiles"`
}

// ProfileJSON is one stored profile.
type ProfileJSON struct {
	ID      int8        `json:"id"`
	Name    string      `json:"name"`
	Entries []EntryJSON `json:"entries"`
}

// EntryJSON is one profile entry. Offset is the time from the start of the
// half day, as HH:MM.
type EntryJSON struct {
	Slot     uint8  `json:"slot"`
	Offset   string `json:"offset"`
	SetPoint int8   `json:"set_point"`
}

func slotOffset(slot uint8) string {
	m := int(slot) * 15
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func formatSchedule(tbl schedule.Table, profiles []profile.Profile) []byte {
	inner := ScheduleInner{
		Season:   tbl.Season.String(),
		Vacation: map[string]int8{},
		Days:     map[string]map[string]map[string]*int8{},
		Profiles: make([]ProfileJSON, 0, len(profiles)),
	}
	for s := schedule.Summer; s < schedule.NumSeasons; s++ {
		inner.Vacation[strings.ToLower(s.String())] = tbl.Vacation[s]
	}

	for d := schedule.Sunday; d < schedule.NumDays; d++ {
		halves := map[string]map[string]*int8{}
		for h := schedule.AM; h < schedule.NumHalves; h++ {
			cells := map[string]*int8{}
			for s := schedule.Summer; s < schedule.NumSeasons; s++ {
				var id *int8
				if v := tbl.Profiles[d][h][s]; v != schedule.Unset {
					id = &v
				}
				cells[strings.ToLower(s.String())] = id
			}
			halves[h.String()] = cells
		}
		inner.Days[d.String()] = halves
	}

	for _, p := range profiles {
		pj := ProfileJSON{ID: p.ID(), Name: p.Name(), Entries: []EntryJSON{}}
		for _, e := range p.Entries() {
			pj.Entries = append(pj.Entries, EntryJSON{Slot: e.Slot, Offset: slotOffset(e.Slot), SetPoint: e.SetPoint})
		}
		inner.Profiles = append(inner.Profiles, pj)
	}

	data, _ := json.MarshalIndent(ScheduleJSON{Schedule: inner}, "", "  ")
	return data
}

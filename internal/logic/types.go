// Package logic holds the pure decision logic of the scheduler daemon:
// switch debouncing, set point change detection and heartbeats.
// It does no I/O. Time is always passed in.
package logic

import "time"

// State is the debounced position of a switch.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// EventType names an event to publish.
type EventType string

const (
	EventAwayOn     EventType = "AWAY_ON"
	EventAwayOff    EventType = "AWAY_OFF"
	EventHolidayOn  EventType = "HOLIDAY_ON"
	EventHolidayOff EventType = "HOLIDAY_OFF"
	EventSetPoint   EventType = "SETPOINT"
)

// Reading is the effective set point at some instant.
type Reading struct {
	// SetPoint is only meaningful when Valid is set.
	SetPoint int8
	Valid    bool

	// NextChange is zero when no change is scheduled or known.
	NextChange time.Time
}

// Same reports whether r and o would drive the heating the same way.
func (r Reading) Same(o Reading) bool {
	if r.Valid != o.Valid {
		return false
	}
	return !r.Valid || r.SetPoint == o.SetPoint
}

// Event is a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Away      State
	Holiday   State
	Reading   Reading
}

// ChannelState tracks debounce state for one switch.
type ChannelState struct {
	Stable       State
	Pending      State
	PendingSince time.Time
	Baselined    bool
}

// Input is one sample of both switches.
type Input struct {
	Away    bool
	Holiday bool
	Time    time.Time
}

// EventCounts counts emitted events since startup.
type EventCounts struct {
	AwayOn     int
	AwayOff    int
	HolidayOn  int
	HolidayOff int
	SetPoint   int
}

// HeartbeatData is the payload of a periodic heartbeat.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
	Reading   Reading
}

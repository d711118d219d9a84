package logic

import "time"

// Detector debounces the switches and detects set point changes.
type Detector struct {
	debounceDuration time.Duration
	away             ChannelState
	holiday          ChannelState
	baselined        bool
	reading          Reading
	observed         bool
	startTime        time.Time
	eventCounts      EventCounts
	lastHeartbeat    time.Time
}

// NewDetector returns a detector with the given debounce duration.
// startTime is the reference for heartbeat uptime.
func NewDetector(debounceDuration time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounceDuration: debounceDuration,
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes a switch sample and returns the resulting events.
// Nothing is emitted until both switches have a baseline.
func (d *Detector) Process(input Input) []Event {
	awayChange := d.processChannel(&d.away, toState(input.Away), input.Time)
	holidayChange := d.processChannel(&d.holiday, toState(input.Holiday), input.Time)

	if !d.baselined {
		d.baselined = d.away.Baselined && d.holiday.Baselined
		return nil
	}

	var events []Event
	if awayChange {
		t := EventAwayOff
		if d.away.Stable == StateOn {
			t = EventAwayOn
			d.eventCounts.AwayOn++
		} else {
			d.eventCounts.AwayOff++
		}
		events = append(events, d.event(input.Time, t))
	}
	if holidayChange {
		t := EventHolidayOff
		if d.holiday.Stable == StateOn {
			t = EventHolidayOn
			d.eventCounts.HolidayOn++
		} else {
			d.eventCounts.HolidayOff++
		}
		events = append(events, d.event(input.Time, t))
	}
	return events
}

// processChannel runs the debounce state machine for one switch and reports
// whether its stable state changed after the baseline.
func (d *Detector) processChannel(ch *ChannelState, s State, now time.Time) bool {
	if s == ch.Stable && ch.Baselined {
		ch.Pending = ""
		return false
	}

	if ch.Pending != s {
		ch.Pending = s
		ch.PendingSince = now
		return false
	}
	if now.Sub(ch.PendingSince) < d.debounceDuration {
		return false
	}

	ch.Stable = s
	ch.Pending = ""
	if !ch.Baselined {
		ch.Baselined = true
		return false
	}
	return true
}

// Observe records the effective reading at now and returns a SETPOINT event
// if the set point or its validity changed. The first reading is always
// reported. A moved NextChange alone is not an event.
func (d *Detector) Observe(now time.Time, r Reading) []Event {
	changed := !d.observed || !d.reading.Same(r)
	d.reading = r
	d.observed = true
	if !changed {
		return nil
	}

	d.eventCounts.SetPoint++
	return []Event{d.event(now, EventSetPoint)}
}

func (d *Detector) event(now time.Time, t EventType) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		Away:      d.away.Stable,
		Holiday:   d.holiday.Stable,
		Reading:   d.reading,
	}
}

func toState(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// IsBaselined reports whether both switches have a baseline.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// CurrentState returns the debounced switch states.
func (d *Detector) CurrentState() (away, holiday State) {
	return d.away.Stable, d.holiday.Stable
}

// Away reports whether the away switch is on after debouncing.
func (d *Detector) Away() bool {
	return d.away.Stable == StateOn
}

// Holiday reports whether the holiday switch is on after debouncing.
func (d *Detector) Holiday() bool {
	return d.holiday.Stable == StateOn
}

// Reading returns the last observed reading.
func (d *Detector) Reading() Reading {
	return d.reading
}

// Counts returns the event counts since startup.
func (d *Detector) Counts() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data once interval has elapsed since the
// last heartbeat or startup. It returns nil before the baseline, before the
// interval is up, and when interval <= 0.
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 || !d.baselined {
		return nil
	}
	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
		Reading:   d.reading,
	}
}

// Package status holds a thread-safe view of the scheduler daemon's state
// for the HTTP status page and lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/setpoint-scheduler/internal/logic"
)

// NetworkInfo describes the host's network link.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config is the daemon configuration shown on the status page.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Store       string
	RTC         string
	Location    string
	AMBegin     time.Duration
}

// Snapshot is a point-in-time copy of the daemon state.
type Snapshot struct {
	Away          logic.State
	Holiday       logic.State
	Baselined     bool
	Reading       logic.Reading
	Season        string
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the time since startup.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the mutable daemon state.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker returns a tracker for a daemon started at startTime.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{StartTime: startTime, Config: cfg},
		now:  time.Now,
	}
}

// SetClock replaces the source of Snapshot.Now. Used when the daemon runs
// on the RTC rather than the host clock.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Update records the switch states, baseline and event counts.
func (t *Tracker) Update(away, holiday logic.State, baselined bool, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Away = away
	t.snap.Holiday = holiday
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetReading records the effective set point and the active season.
func (t *Tracker) SetReading(r logic.Reading, season string) {
	t.mu.Lock()
	t.snap.Reading = r
	t.snap.Season = season
	t.mu.Unlock()
}

// SetMQTTConnected records the MQTT connection state.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork records the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a copy of the state with Now set to the current time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}

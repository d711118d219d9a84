package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/setpoint-scheduler/internal/logic"
)

// StatusJSON is the JSON envelope of a status snapshot.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details. SetPoint is null when no set
// point applies.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Away          string       `json:"away"`
	Holiday       string       `json:"holiday"`
	Ready         bool         `json:"ready"`
	SetPoint      *int8        `json:"set_point"`
	NextChange    string       `json:"next_change,omitempty"`
	Season        string       `json:"season,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports the MQTT connection.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON form of logic.EventCounts.
type CountsJSON struct {
	AwayOn     int `json:"away_on"`
	AwayOff    int `json:"away_off"`
	HolidayOn  int `json:"holiday_on"`
	HolidayOff int `json:"holiday_off"`
	SetPoint   int `json:"set_point"`
}

// NetworkJSON is the JSON form of NetworkInfo.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON form of Config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	DebounceMs   int64  `json:"debounce_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	Store        string `json:"store"`
	RTC          string `json:"rtc"`
	Location     string `json:"tz"`
	AMBeginHours int    `json:"am_begin_hours"`
}

func stateOrUnknown(s logic.State) string {
	if s == "" {
		return "UNKNOWN"
	}
	return string(s)
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Away:          stateOrUnknown(snap.Away),
		Holiday:       stateOrUnknown(snap.Holiday),
		Ready:         snap.Baselined,
		Season:        snap.Season,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			AwayOn:     snap.Counts.AwayOn,
			AwayOff:    snap.Counts.AwayOff,
			HolidayOn:  snap.Counts.HolidayOn,
			HolidayOff: snap.Counts.HolidayOff,
			SetPoint:   snap.Counts.SetPoint,
		},
		Config: ConfigJSON{
			PollMs:       snap.Config.PollMs,
			DebounceMs:   snap.Config.DebounceMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			Store:        snap.Config.Store,
			RTC:          snap.Config.RTC,
			Location:     snap.Config.Location,
			AMBeginHours: int(snap.Config.AMBegin / time.Hour),
		},
	}
	if snap.Reading.Valid {
		sp := snap.Reading.SetPoint
		inner.SetPoint = &sp
	}
	if !snap.Reading.NextChange.IsZero() {
		inner.NextChange = snap.Reading.NextChange.UTC().Format(time.RFC3339)
	}
	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}
	return inner
}

// FormatJSON returns the indented status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact status for an MQTT lifecycle event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// Package mqtt publishes schedule events, with a fake for tests.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/setpoint-scheduler/internal/logic"
)

// Topic carries set point and switch events.
const Topic = "heating/schedule/events"

// TopicSystem carries lifecycle events (STARTUP, SHUTDOWN, HEARTBEAT).
const TopicSystem = "heating/schedule/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a schedule event. Failures are reported, never fatal.
	Publish(event logic.Event) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED
	Reason    string // SIGINT, SIGTERM, MQTT_DISCONNECT

	// RawPayload, if set, is sent as is (a full status snapshot).
	RawPayload []byte
	Retained   bool
}

// Payload is the event message envelope.
type Payload struct {
	Schedule SchedulePayload `json:"schedule"`
}

// SchedulePayload describes the effective set point after an event.
// SetPoint is null when no set point applies.
type SchedulePayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	SetPoint   *int8  `json:"set_point"`
	NextChange string `json:"next_change,omitempty"`
	Away       string `json:"away"`
	Holiday    string `json:"holiday"`
}

// FormatPayload returns the JSON payload for an event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := SchedulePayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Away:      string(event.Away),
		Holiday:   string(event.Holiday),
	}
	if event.Reading.Valid {
		sp := event.Reading.SetPoint
		p.SetPoint = &sp
	}
	if !event.Reading.NextChange.IsZero() {
		p.NextChange = event.Reading.NextChange.UTC().Format(time.RFC3339)
	}
	return json.Marshal(Payload{Schedule: p})
}

// SystemPayload is the envelope for lifecycle events that carry no status
// snapshot (the will message, RECONNECTED).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload returns the JSON payload for a lifecycle event.
// RawPayload is returned unchanged when set.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{System: SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}

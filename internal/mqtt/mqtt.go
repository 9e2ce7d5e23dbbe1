// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/conveyor-interlock/internal/alarm"
	"github.com/sweeney/conveyor-interlock/internal/interlock"
)

// Topic is the MQTT topic for interlock transition events.
const Topic = "warehouse/conveyor/interlock/events"

// TopicAlarms is the MQTT topic for raised alarms.
const TopicAlarms = "warehouse/conveyor/interlock/alarms"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "warehouse/conveyor/interlock/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an interlock event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event interlock.Event) error

	// PublishAlarm sends a raised alarm to the broker.
	PublishAlarm(a alarm.Alarm) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the MQTT message payload for an interlock event.
type Payload struct {
	Interlock EventPayload `json:"interlock"`
}

// EventPayload contains the interlock event details.
type EventPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Status    string `json:"status,omitempty"`
	EStop     bool   `json:"estop"`
	Fault     bool   `json:"fault"`
}

// FormatPayload creates the JSON payload for an interlock event.
func FormatPayload(event interlock.Event) ([]byte, error) {
	payload := Payload{
		Interlock: EventPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Status:    string(event.Status),
			EStop:     event.EStop,
			Fault:     event.Fault,
		},
	}
	return json.Marshal(payload)
}

// AlarmPayload is the MQTT message payload for a raised alarm.
type AlarmPayload struct {
	Alarm AlarmPayloadInner `json:"alarm"`
}

// AlarmPayloadInner contains the alarm details.
type AlarmPayloadInner struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// FormatAlarmPayload creates the JSON payload for an alarm.
func FormatAlarmPayload(a alarm.Alarm) ([]byte, error) {
	return json.Marshal(AlarmPayload{
		Alarm: AlarmPayloadInner{
			ID:        a.ID,
			Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
			Message:   a.Message,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	System        string     `json:"system"`
	Message       string     `json:"message"`
	State         string     `json:"state"`
	Running       bool       `json:"running"`
	JamActive     bool       `json:"jam_active"`
	Available     bool       `json:"available"`
	Safety        SafetyJSON `json:"safety"`
	Ready         bool       `json:"ready"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Alarms        int        `json:"alarms_raised"`
	Config        ConfigJSON `json:"config"`
}

// SafetyJSON reports the safety inputs.
type SafetyJSON struct {
	EStop bool `json:"estop"`
	Fault bool `json:"fault"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of safety transition counts.
type CountsJSON struct {
	EStopOn  int `json:"estop_on"`
	EStopOff int `json:"estop_off"`
	FaultOn  int `json:"fault_on"`
	FaultOff int `json:"fault_off"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Journal     string `json:"journal,omitempty"`
	Simulated   bool   `json:"simulated"`
}

// Build converts a snapshot to its JSON representation.
func Build(snap Snapshot) StatusInner {
	system := string(snap.Interlock.Status)
	message := snap.Interlock.Status.Message()
	state := string(snap.Interlock.State)
	if !snap.Ready {
		system, message, state = "UNKNOWN", "UNKNOWN", "UNKNOWN"
	}

	return StatusInner{
		System:        system,
		Message:       message,
		State:         state,
		Running:       snap.Interlock.Running,
		JamActive:     snap.Interlock.JamActive,
		Available:     snap.Interlock.Available,
		Safety:        SafetyJSON{EStop: snap.Interlock.EStop, Fault: snap.Interlock.Fault},
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			EStopOn:  snap.Counts.EStopOn,
			EStopOff: snap.Counts.EStopOff,
			FaultOn:  snap.Counts.FaultOn,
			FaultOff: snap.Counts.FaultOff,
		},
		Alarms: snap.Alarms,
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Journal:     snap.Config.Journal,
			Simulated:   snap.Config.Simulated,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Build(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := Build(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

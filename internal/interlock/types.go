// Package interlock contains the motor/conveyor safety interlock.
// This package has NO external dependencies (no GPIO, MQTT, OS, or logging).
// Every decision is taken synchronously inside a method call; nothing here
// reacts to signal changes between calls.
package interlock

import "time"

// SafetyInputs supplies the safety signals that gate a motor start.
type SafetyInputs interface {
	// EStop reports whether the emergency stop is asserted.
	EStop() bool
	// Fault reports whether a generic fault is asserted.
	Fault() bool
}

// JamSensor reports whether the conveyor is physically jammed.
type JamSensor interface {
	JamDetected() bool
}

// MotorDriver is the on/off actuation primitive for the conveyor motor.
type MotorDriver interface {
	StartForward()
	Stop()
	// IsRunning returns the last commanded run state.
	IsRunning() bool
}

// Notifier receives alarm and log messages. Delivery is fire-and-forget.
type Notifier interface {
	Notify(message string)
}

type discard struct{}

func (discard) Notify(string) {}

// Discard is a Notifier that drops every message.
var Discard Notifier = discard{}

// State is the supervisor's position in the conveyor state machine.
type State string

const (
	StateIdle       State = "IDLE"
	StateRunning    State = "RUNNING"
	StateJamLatched State = "JAM_LATCHED"
)

// Status is the externally reported system status.
type Status string

const (
	StatusFaultJam     Status = "FAULT_JAM"
	StatusSafetyLocked Status = "SAFETY_LOCKED"
	StatusRunning      Status = "RUNNING"
	StatusIdle         Status = "IDLE"
)

// Message returns the operator-facing text for the status.
func (s Status) Message() string {
	switch s {
	case StatusFaultJam:
		return "FAULT: JAM ACTIVE."
	case StatusSafetyLocked:
		return "STOPPED: SAFETY LOCK ACTIVE."
	case StatusRunning:
		return "RUNNING OK"
	case StatusIdle:
		return "IDLE: Ready to Start."
	}
	return "UNKNOWN"
}

// Notification messages sent by the supervisor.
const (
	MsgConveyorJammed = "Conveyor Jammed"
	MsgJamCleared     = "Conveyor jam cleared"
)

// EventType identifies a safety signal transition or a status change.
type EventType string

const (
	EventEStopOn  EventType = "ESTOP_ON"
	EventEStopOff EventType = "ESTOP_OFF"
	EventFaultOn  EventType = "FAULT_ON"
	EventFaultOff EventType = "FAULT_OFF"
	EventStatus   EventType = "STATUS"
)

// Event is a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Status    Status
	EStop     bool
	Fault     bool
}

// SafetyInput is a single sample of the safety signals.
type SafetyInput struct {
	EStop bool
	Fault bool
	Time  time.Time
}

// EventCounts tracks the number of each safety transition since startup.
type EventCounts struct {
	EStopOn  int
	EStopOff int
	FaultOn  int
	FaultOff int
}

// Snapshot is a point-in-time view of the interlock.
type Snapshot struct {
	Status    Status
	State     State
	Running   bool
	JamActive bool
	EStop     bool
	Fault     bool
	Available bool
}

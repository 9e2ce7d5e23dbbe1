package interlock

// Supervisor adds jam handling on top of a MotorGate. A detected jam latches,
// halts the motor and blocks restarts until the sensor reads clear and the
// jam is explicitly cleared.
//
// Not safe for concurrent use; the caller serialises access.
type Supervisor struct {
	gate     *MotorGate
	sensor   JamSensor
	notifier Notifier

	jamActive bool
}

// NewSupervisor creates a supervisor with the jam latch released.
// It panics if any collaborator is nil; pass Discard to drop notifications.
func NewSupervisor(gate *MotorGate, sensor JamSensor, notifier Notifier) *Supervisor {
	if gate == nil {
		panic("interlock: nil MotorGate")
	}
	if sensor == nil {
		panic("interlock: nil JamSensor")
	}
	if notifier == nil {
		panic("interlock: nil Notifier")
	}
	return &Supervisor{gate: gate, sensor: sensor, notifier: notifier}
}

// Start runs the conveyor. The gate is not consulted while a jam is latched.
func (s *Supervisor) Start() bool {
	if s.jamActive {
		return false
	}
	return s.gate.Start()
}

// Stop halts the conveyor.
func (s *Supervisor) Stop() {
	s.gate.Stop()
}

// PollForJam reads the jam sensor. A jam latches and forces the motor off.
// A clear reading never releases the latch.
func (s *Supervisor) PollForJam() {
	if !s.sensor.JamDetected() {
		return
	}
	wasActive := s.jamActive
	s.jamActive = true
	s.gate.Stop()
	if !wasActive {
		s.notifier.Notify(MsgConveyorJammed)
	}
}

// ClearJam releases the latch if the sensor no longer reports a jam.
// While the sensor still reports a jam this is a silent no-op.
func (s *Supervisor) ClearJam() {
	if s.sensor.JamDetected() {
		return
	}
	if s.jamActive {
		s.jamActive = false
		s.notifier.Notify(MsgJamCleared)
	}
}

// IsJamActive reports whether the jam latch is set.
func (s *Supervisor) IsJamActive() bool {
	return s.jamActive
}

// IsRunning reports whether the motor is running.
func (s *Supervisor) IsRunning() bool {
	return s.gate.IsRunning()
}

// CanStart reports whether Start would currently succeed, without actuating.
func (s *Supervisor) CanStart() bool {
	return !s.jamActive && s.gate.CanStart()
}

// State returns the current state machine position.
func (s *Supervisor) State() State {
	switch {
	case s.jamActive:
		return StateJamLatched
	case s.gate.IsRunning():
		return StateRunning
	default:
		return StateIdle
	}
}

package interlock

// TransportService is the contract offered to a sorting or scheduling
// collaborator that hands work to the conveyor.
type TransportService interface {
	// RequestMovement starts the line for a unit of work.
	// Returns true if the line started; false if it was busy or blocked.
	RequestMovement(id string) bool
	// HoldMovement halts the line, e.g. when a unit reaches its gate.
	HoldMovement()
	// IsAvailableForTransport is true when the line is idle and not jammed.
	IsAvailableForTransport() bool
	IsRunning() bool
}

// TransportSystem exposes a Supervisor to external callers.
// It adds no safety logic of its own.
type TransportSystem struct {
	sup *Supervisor
}

var _ TransportService = (*TransportSystem)(nil)

// NewTransportSystem wraps a supervisor. It panics if sup is nil.
func NewTransportSystem(sup *Supervisor) *TransportSystem {
	if sup == nil {
		panic("interlock: nil Supervisor")
	}
	return &TransportSystem{sup: sup}
}

// New wires a gate, supervisor and facade over the given collaborators.
func New(driver MotorDriver, safety SafetyInputs, sensor JamSensor, notifier Notifier) *TransportSystem {
	gate := NewMotorGate(driver, safety)
	return NewTransportSystem(NewSupervisor(gate, sensor, notifier))
}

func (t *TransportSystem) StartSystem() bool { return t.sup.Start() }

func (t *TransportSystem) StopSystem() { t.sup.Stop() }

func (t *TransportSystem) PollSystemForIssues() { t.sup.PollForJam() }

func (t *TransportSystem) ClearSystemFault() { t.sup.ClearJam() }

func (t *TransportSystem) IsRunning() bool { return t.sup.IsRunning() }

func (t *TransportSystem) IsJamActive() bool { return t.sup.IsJamActive() }

// IsAvailableForTransport means idle and not jammed. A moving line is not
// available; requesting movement while already moving is not supported.
func (t *TransportSystem) IsAvailableForTransport() bool {
	return !t.IsJamActive() && !t.IsRunning()
}

// RequestMovement starts the line if it is available. The id is for the
// caller's traceability and does not affect the decision.
func (t *TransportSystem) RequestMovement(id string) bool {
	if !t.IsAvailableForTransport() {
		return false
	}
	return t.StartSystem()
}

// HoldMovement stops the line.
func (t *TransportSystem) HoldMovement() { t.StopSystem() }

// SystemStatus reports FaultJam, Running, SafetyLocked or Idle, in that
// order of precedence. The safety check is a read-only probe.
func (t *TransportSystem) SystemStatus() Status {
	if t.IsJamActive() {
		return StatusFaultJam
	}
	if t.IsRunning() {
		return StatusRunning
	}
	if !t.sup.gate.CanStart() {
		return StatusSafetyLocked
	}
	return StatusIdle
}

// Snapshot reads the whole interlock state in one call.
func (t *TransportSystem) Snapshot() Snapshot {
	estop, fault := t.sup.gate.Safety()
	return Snapshot{
		Status:    t.SystemStatus(),
		State:     t.sup.State(),
		Running:   t.IsRunning(),
		JamActive: t.IsJamActive(),
		EStop:     estop,
		Fault:     fault,
		Available: t.IsAvailableForTransport(),
	}
}

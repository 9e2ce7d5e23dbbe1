package interlock

// MotorGate is the single owner of motor actuation. Starting is gated by the
// safety inputs; stopping is always permitted.
type MotorGate struct {
	driver MotorDriver
	safety SafetyInputs
}

// NewMotorGate creates a gate over the given driver and safety inputs.
// It panics if either collaborator is nil.
func NewMotorGate(driver MotorDriver, safety SafetyInputs) *MotorGate {
	if driver == nil {
		panic("interlock: nil MotorDriver")
	}
	if safety == nil {
		panic("interlock: nil SafetyInputs")
	}
	return &MotorGate{driver: driver, safety: safety}
}

// Start runs the motor if the safety inputs are clear.
// A running motor is not re-actuated. Returns false when blocked by safety.
func (g *MotorGate) Start() bool {
	if !g.CanStart() {
		return false
	}
	if g.driver.IsRunning() {
		return true
	}
	g.driver.StartForward()
	return g.driver.IsRunning()
}

// Stop halts the motor regardless of current state or safety inputs.
func (g *MotorGate) Stop() {
	g.driver.Stop()
}

// IsRunning returns the driver's cached run state.
func (g *MotorGate) IsRunning() bool {
	return g.driver.IsRunning()
}

// CanStart reports whether Start would pass the safety check right now.
// It never actuates the motor.
func (g *MotorGate) CanStart() bool {
	return !g.safety.EStop() && !g.safety.Fault()
}

// Safety returns the current E-Stop and Fault values.
func (g *MotorGate) Safety() (estop, fault bool) {
	return g.safety.EStop(), g.safety.Fault()
}

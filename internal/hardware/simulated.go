package hardware

// SimulatedHardware is a test double and simulation backend.
// Signals are plain fields so tests and the console can flip them directly.
type SimulatedHardware struct {
	// EStopAsserted, FaultAsserted and Jammed are the simulated inputs.
	EStopAsserted bool
	FaultAsserted bool
	Jammed        bool

	// Running is the simulated motor state.
	Running bool

	// StartCalls and StopCalls count actuations.
	StartCalls int
	StopCalls  int

	// Closed tracks if Close was called.
	Closed bool
}

// NewSimulatedHardware creates simulated hardware with every signal clear.
func NewSimulatedHardware() *SimulatedHardware {
	return &SimulatedHardware{}
}

func (s *SimulatedHardware) EStop() bool       { return s.EStopAsserted }
func (s *SimulatedHardware) Fault() bool       { return s.FaultAsserted }
func (s *SimulatedHardware) JamDetected() bool { return s.Jammed }
func (s *SimulatedHardware) IsRunning() bool   { return s.Running }

// StartForward records a start actuation.
func (s *SimulatedHardware) StartForward() {
	s.StartCalls++
	s.Running = true
}

// Stop records a stop actuation.
func (s *SimulatedHardware) Stop() {
	s.StopCalls++
	s.Running = false
}

// Close marks the hardware as closed.
func (s *SimulatedHardware) Close() error {
	s.Closed = true
	return nil
}

// Reset clears every signal and counter.
func (s *SimulatedHardware) Reset() {
	*s = SimulatedHardware{}
}

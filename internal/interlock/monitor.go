package interlock

// SafetyMonitor turns safety samples into transition events.
// The first sample sets the baseline and emits nothing.
type SafetyMonitor struct {
	estop     bool
	fault     bool
	baselined bool
	counts    EventCounts
}

// NewSafetyMonitor creates a monitor with no baseline.
func NewSafetyMonitor() *SafetyMonitor {
	return &SafetyMonitor{}
}

// Process returns the transitions since the previous sample.
// When both signals change, the E-Stop event comes first and both
// events carry the new sample's values.
func (m *SafetyMonitor) Process(input SafetyInput) []Event {
	if !m.baselined {
		m.estop = input.EStop
		m.fault = input.Fault
		m.baselined = true
		return nil
	}

	estopChanged := input.EStop != m.estop
	faultChanged := input.Fault != m.fault
	m.estop = input.EStop
	m.fault = input.Fault

	var events []Event
	if estopChanged {
		t := EventEStopOff
		if input.EStop {
			t = EventEStopOn
			m.counts.EStopOn++
		} else {
			m.counts.EStopOff++
		}
		events = append(events, m.event(t, input))
	}
	if faultChanged {
		t := EventFaultOff
		if input.Fault {
			t = EventFaultOn
			m.counts.FaultOn++
		} else {
			m.counts.FaultOff++
		}
		events = append(events, m.event(t, input))
	}
	return events
}

func (m *SafetyMonitor) event(t EventType, input SafetyInput) Event {
	return Event{
		Timestamp: input.Time,
		Type:      t,
		EStop:     m.estop,
		Fault:     m.fault,
	}
}

// IsBaselined returns whether the first sample has been seen.
func (m *SafetyMonitor) IsBaselined() bool {
	return m.baselined
}

// CurrentState returns the last sampled signal values.
func (m *SafetyMonitor) CurrentState() (estop, fault bool) {
	return m.estop, m.fault
}

// Counts returns the transition counts since startup.
func (m *SafetyMonitor) Counts() EventCounts {
	return m.counts
}

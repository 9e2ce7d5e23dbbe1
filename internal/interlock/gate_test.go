package interlock

import "testing"

// rig is a minimal hardware double shared by the interlock tests.
type rig struct {
	estop   bool
	fault   bool
	jammed  bool
	running bool
	starts  int
	stops   int
}

func (r *rig) EStop() bool       { return r.estop }
func (r *rig) Fault() bool       { return r.fault }
func (r *rig) JamDetected() bool { return r.jammed }
func (r *rig) IsRunning() bool   { return r.running }

func (r *rig) StartForward() {
	r.starts++
	r.running = true
}

func (r *rig) Stop() {
	r.stops++
	r.running = false
}

type recorder struct {
	messages []string
}

func (r *recorder) Notify(msg string) {
	r.messages = append(r.messages, msg)
}

func TestGateSafetyMatrix(t *testing.T) {
	tests := []struct {
		estop, fault bool
		want         bool
	}{
		{false, false, true},
		{true, false, false},
		{false, true, false},
		{true, true, false},
	}
	for _, tt := range tests {
		r := &rig{estop: tt.estop, fault: tt.fault}
		g := NewMotorGate(r, r)
		if got := g.Start(); got != tt.want {
			t.Errorf("estop=%v fault=%v: Start() = %v, want %v", tt.estop, tt.fault, got, tt.want)
		}
		if g.IsRunning() != tt.want {
			t.Errorf("estop=%v fault=%v: IsRunning() = %v, want %v", tt.estop, tt.fault, g.IsRunning(), tt.want)
		}
		wantStarts := 0
		if tt.want {
			wantStarts = 1
		}
		if r.starts != wantStarts {
			t.Errorf("estop=%v fault=%v: %d actuations, want %d", tt.estop, tt.fault, r.starts, wantStarts)
		}
	}
}

func TestGateIdempotentStart(t *testing.T) {
	r := &rig{}
	g := NewMotorGate(r, r)

	if !g.Start() {
		t.Fatal("first Start() should succeed")
	}
	if !g.Start() {
		t.Fatal("second Start() should report running")
	}
	if r.starts != 1 {
		t.Errorf("expected 1 actuation, got %d", r.starts)
	}
	if !g.IsRunning() {
		t.Error("expected running after two starts")
	}
}

func TestGateIdempotentStop(t *testing.T) {
	r := &rig{}
	g := NewMotorGate(r, r)

	g.Stop()
	g.Stop()
	if g.IsRunning() {
		t.Error("expected stopped")
	}
	if r.stops != 2 {
		t.Errorf("stop should always actuate: got %d, want 2", r.stops)
	}
}

func TestGateStopIgnoresSafety(t *testing.T) {
	r := &rig{}
	g := NewMotorGate(r, r)
	g.Start()

	r.estop = true
	r.fault = true
	g.Stop()
	if g.IsRunning() {
		t.Error("stop must succeed with safety asserted")
	}
}

func TestGateFaultDoesNotStopRunningMotor(t *testing.T) {
	r := &rig{}
	g := NewMotorGate(r, r)
	g.Start()

	r.fault = true
	if g.Start() {
		t.Error("Start() should be refused while fault asserted")
	}
	// Poll-driven: the motor keeps running until someone calls Stop.
	if !g.IsRunning() {
		t.Error("fault must not stop a running motor by itself")
	}
}

func TestGateCanStartDoesNotActuate(t *testing.T) {
	r := &rig{}
	g := NewMotorGate(r, r)

	if !g.CanStart() {
		t.Error("CanStart() should be true with safety clear")
	}
	if r.starts != 0 || g.IsRunning() {
		t.Errorf("CanStart() actuated the motor: starts=%d running=%v", r.starts, g.IsRunning())
	}

	r.estop = true
	if g.CanStart() {
		t.Error("CanStart() should be false with E-Stop asserted")
	}
}

func TestNewMotorGatePanicsOnNil(t *testing.T) {
	r := &rig{}
	cases := map[string]func(){
		"driver": func() { NewMotorGate(nil, r) },
		"safety": func() { NewMotorGate(r, nil) },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}
}

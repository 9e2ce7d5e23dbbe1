package internal

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/conveyor-interlock/internal/alarm"
	"github.com/sweeney/conveyor-interlock/internal/hardware"
	"github.com/sweeney/conveyor-interlock/internal/interlock"
	"github.com/sweeney/conveyor-interlock/internal/mqtt"
	"github.com/sweeney/conveyor-interlock/internal/status"
)

func openTestJournal(t *testing.T) *alarm.Journal {
	t.Helper()
	j, err := alarm.OpenJournal(filepath.Join(t.TempDir(), "alarms.db"))
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// TestIntegrationJamCycle drives a full jam cycle through the facade with the
// alarm service journaling to SQLite and forwarding to MQTT.
func TestIntegrationJamCycle(t *testing.T) {
	ctx := context.Background()
	sim := hardware.NewSimulatedHardware()
	pub := mqtt.NewFakePublisher()
	journal := openTestJournal(t)
	alarms := alarm.NewService(journal, pub)
	ts := interlock.New(sim, sim, sim, alarms)

	if !ts.StartSystem() {
		t.Fatal("start should succeed with clear inputs")
	}

	sim.Jammed = true
	for i := 0; i < 3; i++ {
		ts.PollSystemForIssues()
	}
	if ts.SystemStatus() != interlock.StatusFaultJam {
		t.Errorf("status: got %s, want FAULT_JAM", ts.SystemStatus())
	}
	if sim.Running {
		t.Error("motor should be stopped while jammed")
	}
	if ts.StartSystem() {
		t.Error("start must be refused while the jam is latched")
	}

	n, err := journal.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("journal: got %d alarms, want 1 (one per latch)", n)
	}

	sim.Jammed = false
	ts.PollSystemForIssues()
	if !ts.IsJamActive() {
		t.Error("a clear reading must not release the latch")
	}
	ts.ClearSystemFault()
	if ts.SystemStatus() != interlock.StatusIdle {
		t.Errorf("status after clear: got %s, want IDLE", ts.SystemStatus())
	}

	stored, err := journal.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("journal: got %d alarms, want 2", len(stored))
	}
	if stored[0].Message != interlock.MsgConveyorJammed || stored[1].Message != interlock.MsgJamCleared {
		t.Errorf("journal order: got %q, %q", stored[0].Message, stored[1].Message)
	}

	if len(pub.Alarms) != 2 {
		t.Fatalf("forwarded: got %d alarms, want 2", len(pub.Alarms))
	}
	if pub.Alarms[0].ID != stored[0].ID {
		t.Errorf("forwarded id %q does not match journal id %q", pub.Alarms[0].ID, stored[0].ID)
	}

	payload, err := mqtt.FormatAlarmPayload(pub.Alarms[0])
	if err != nil {
		t.Fatalf("FormatAlarmPayload: %v", err)
	}
	var parsed mqtt.AlarmPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("alarm payload: %v", err)
	}
	if parsed.Alarm.Message != "Conveyor Jammed" || parsed.Alarm.ID == "" {
		t.Errorf("alarm payload: got %+v", parsed.Alarm)
	}
}

// TestIntegrationSafetyEvents runs safety samples through the monitor and
// publishes them, checking the wire payloads.
func TestIntegrationSafetyEvents(t *testing.T) {
	sim := hardware.NewSimulatedHardware()
	pub := mqtt.NewFakePublisher()
	monitor := interlock.NewSafetyMonitor()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	steps := []struct{ estop, fault bool }{
		{false, false}, // baseline
		{true, false},
		{true, true},
		{false, false}, // both release together
	}
	for i, s := range steps {
		sim.EStopAsserted, sim.FaultAsserted = s.estop, s.fault
		events := monitor.Process(interlock.SafetyInput{
			EStop: sim.EStop(),
			Fault: sim.Fault(),
			Time:  start.Add(time.Duration(i) * 100 * time.Millisecond),
		})
		for _, e := range events {
			if err := pub.Publish(e); err != nil {
				t.Fatalf("publish: %v", err)
			}
		}
	}

	want := []interlock.EventType{
		interlock.EventEStopOn,
		interlock.EventFaultOn,
		interlock.EventEStopOff,
		interlock.EventFaultOff,
	}
	if len(pub.Events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.Events))
	}
	for i, w := range want {
		if pub.Events[i].Type != w {
			t.Errorf("event %d: got %s, want %s", i, pub.Events[i].Type, w)
		}
	}

	var parsed mqtt.Payload
	if err := json.Unmarshal(pub.Payloads(mqtt.Topic)[1], &parsed); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if parsed.Interlock.Event != "FAULT_ON" || !parsed.Interlock.EStop || !parsed.Interlock.Fault {
		t.Errorf("payload 1: got %+v", parsed.Interlock)
	}
	if parsed.Interlock.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("payload 1 timestamp: got %q", parsed.Interlock.Timestamp)
	}

	counts := monitor.Counts()
	if counts != (interlock.EventCounts{EStopOn: 1, EStopOff: 1, FaultOn: 1, FaultOff: 1}) {
		t.Errorf("counts: got %+v", counts)
	}
}

// TestIntegrationEStopLocksStatus checks that an asserted E-Stop blocks
// starting and is reported as a safety lock without actuating the motor.
func TestIntegrationEStopLocksStatus(t *testing.T) {
	sim := hardware.NewSimulatedHardware()
	ts := interlock.New(sim, sim, sim, interlock.Discard)

	sim.EStopAsserted = true
	if ts.RequestMovement("pallet-1") {
		t.Error("movement must be refused with E-Stop asserted")
	}
	if ts.SystemStatus() != interlock.StatusSafetyLocked {
		t.Errorf("status: got %s, want SAFETY_LOCKED", ts.SystemStatus())
	}
	if sim.StartCalls != 0 {
		t.Errorf("StartCalls: got %d, want 0", sim.StartCalls)
	}

	sim.EStopAsserted = false
	if ts.SystemStatus() != interlock.StatusIdle {
		t.Errorf("status after release: got %s, want IDLE", ts.SystemStatus())
	}
	if sim.Running {
		t.Error("release must not restart the motor")
	}
	if !ts.RequestMovement("pallet-1") {
		t.Error("movement should be accepted after release")
	}
}

// TestIntegrationStatusJSON feeds the facade snapshot into the tracker and
// checks the rendered status document.
func TestIntegrationStatusJSON(t *testing.T) {
	sim := hardware.NewSimulatedHardware()
	rec := alarm.NewRecorder()
	alarms := alarm.NewService(nil, rec)
	ts := interlock.New(sim, sim, sim, alarms)
	tracker := status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{
		PollMs:    100,
		Broker:    "tcp://localhost:1883",
		Simulated: true,
	})

	var before status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(tracker.Snapshot()), &before); err != nil {
		t.Fatalf("status JSON: %v", err)
	}
	if before.Status.System != "UNKNOWN" {
		t.Errorf("before first update: got %q, want UNKNOWN", before.Status.System)
	}

	ts.StartSystem()
	sim.Jammed = true
	ts.PollSystemForIssues()
	tracker.Update(ts.Snapshot(), interlock.EventCounts{})
	tracker.SetAlarms(alarms.Raised())

	var after status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(tracker.Snapshot()), &after); err != nil {
		t.Fatalf("status JSON: %v", err)
	}
	s := after.Status
	if s.System != "FAULT_JAM" || s.State != "JAM_LATCHED" {
		t.Errorf("system/state: got %s/%s", s.System, s.State)
	}
	if !s.JamActive || s.Running || s.Available {
		t.Errorf("jam=%v running=%v available=%v", s.JamActive, s.Running, s.Available)
	}
	if s.Alarms != 1 {
		t.Errorf("alarms: got %d, want 1", s.Alarms)
	}
	if !s.Config.Simulated {
		t.Error("expected config.simulated=true")
	}
	if len(rec.Alarms) != 1 || rec.Alarms[0].Message != interlock.MsgConveyorJammed {
		t.Errorf("forwarded: got %+v", rec.Alarms)
	}
}

// TestIntegrationSystemEventPayloads checks STARTUP and SHUTDOWN payloads
// built from tracker snapshots.
func TestIntegrationSystemEventPayloads(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Now(), status.Config{PollMs: 100})

	snap := tracker.Snapshot()
	err := pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})
	if err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	tracker.Update(interlock.Snapshot{Status: interlock.StatusIdle, State: interlock.StateIdle, Available: true}, interlock.EventCounts{})
	snap = tracker.Snapshot()
	err = pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     "SIGTERM",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"),
	})
	if err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	var startup, shutdown status.StatusJSON
	payloads := pub.Payloads(mqtt.TopicSystem)
	if err := json.Unmarshal(payloads[0], &startup); err != nil {
		t.Fatalf("startup payload: %v", err)
	}
	if err := json.Unmarshal(payloads[1], &shutdown); err != nil {
		t.Fatalf("shutdown payload: %v", err)
	}
	if startup.Status.Event != "STARTUP" || startup.Status.System != "UNKNOWN" {
		t.Errorf("startup: got %+v", startup.Status)
	}
	if shutdown.Status.Event != "SHUTDOWN" || shutdown.Status.Reason != "SIGTERM" {
		t.Errorf("shutdown: got %+v", shutdown.Status)
	}
	if shutdown.Status.System != "IDLE" || !shutdown.Status.Available {
		t.Errorf("shutdown status: got %+v", shutdown.Status)
	}
}

// TestIntegrationAlarmFailuresDoNotBlockInterlock verifies that storage and
// forwarding failures are swallowed and the interlock keeps working.
func TestIntegrationAlarmFailuresDoNotBlockInterlock(t *testing.T) {
	sim := hardware.NewSimulatedHardware()
	store := alarm.NewRecorder()
	store.Err = errors.New("disk full")
	pub := mqtt.NewFakePublisher()
	pub.FailPublish = errors.New("broker unavailable")
	alarms := alarm.NewService(store, pub)
	ts := interlock.New(sim, sim, sim, alarms)

	ts.StartSystem()
	sim.Jammed = true
	ts.PollSystemForIssues()

	if !ts.IsJamActive() || sim.Running {
		t.Errorf("jam=%v running=%v", ts.IsJamActive(), sim.Running)
	}
	if alarms.Raised() != 1 {
		t.Errorf("raised: got %d, want 1", alarms.Raised())
	}
	if len(store.Alarms) != 0 || len(pub.Alarms) != 0 {
		t.Error("failed deliveries should not be recorded")
	}
}

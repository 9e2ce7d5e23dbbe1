package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/conveyor-interlock/internal/alarm"
	"github.com/sweeney/conveyor-interlock/internal/hardware"
	"github.com/sweeney/conveyor-interlock/internal/interlock"
	"github.com/sweeney/conveyor-interlock/internal/mqtt"
	"github.com/sweeney/conveyor-interlock/internal/status"
)

// Alarm messages raised by the loop for safety transitions.
const (
	msgEStopAsserted = "Emergency stop asserted"
	msgEStopReleased = "Emergency stop released"
	msgFaultAsserted = "Drive fault asserted"
)

// loop owns the transport system. Every call into it happens on the
// goroutine running loop.run.
type loop struct {
	dev        hardware.Device
	sim        *hardware.SimulatedHardware // nil unless simulating
	ts         *interlock.TransportSystem
	monitor    *interlock.SafetyMonitor
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	alarms     *alarm.Service
	heartbeat  time.Duration
	now        func() time.Time
	out        io.Writer

	lastStatus interlock.Status
	lastBeat   time.Time
}

// run polls on every tick and executes console commands until a signal
// arrives. The motor is stopped before SHUTDOWN is published.
func (l *loop) run(tick <-chan time.Time, sig <-chan os.Signal, cmds <-chan string) error {
	l.lastBeat = l.now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			l.ts.StopSystem()
			l.refresh()

			name := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    name,
				Retained:  true,
			}
			if l.tracker != nil {
				event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", name)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case line, ok := <-cmds:
			if !ok {
				cmds = nil
				continue
			}
			l.command(line)
			l.publishStatusChange(l.now())
			l.refresh()

		case <-tick:
			l.poll(l.now())
		}
	}
}

func (l *loop) poll(t time.Time) {
	events := l.monitor.Process(interlock.SafetyInput{
		EStop: l.dev.EStop(),
		Fault: l.dev.Fault(),
		Time:  t,
	})
	for _, event := range events {
		log.Printf("event: %s (estop=%v fault=%v)", event.Type, event.EStop, event.Fault)
		if err := l.publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
		switch event.Type {
		case interlock.EventEStopOn:
			l.alarms.Notify(msgEStopAsserted)
			l.ts.HoldMovement()
		case interlock.EventEStopOff:
			l.alarms.Notify(msgEStopReleased)
			log.Printf("E-Stop released, start required to resume")
		case interlock.EventFaultOn:
			l.alarms.Notify(msgFaultAsserted)
		case interlock.EventFaultOff:
			log.Printf("drive fault cleared")
		}
	}

	l.ts.PollSystemForIssues()
	l.publishStatusChange(t)

	if l.heartbeat > 0 && t.Sub(l.lastBeat) >= l.heartbeat {
		l.lastBeat = t
		l.refresh()
		counts := l.monitor.Counts()
		log.Printf("heartbeat: status=%s estop_on=%d fault_on=%d alarms=%d",
			l.ts.SystemStatus(), counts.EStopOn, counts.FaultOn, l.alarms.Raised())

		hb := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
		if l.tracker != nil {
			hb.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
		}
		if err := l.publisher.PublishSystem(hb); err != nil {
			log.Printf("heartbeat publish error: %v", err)
		}
	}

	l.refresh()
}

// publishStatusChange publishes a STATUS event when the derived status
// differs from the last one published.
func (l *loop) publishStatusChange(t time.Time) {
	snap := l.ts.Snapshot()
	if snap.Status == l.lastStatus {
		return
	}
	l.lastStatus = snap.Status
	log.Printf("status: %s", snap.Status.Message())
	event := interlock.Event{
		Timestamp: t,
		Type:      interlock.EventStatus,
		Status:    snap.Status,
		EStop:     snap.EStop,
		Fault:     snap.Fault,
	}
	if err := l.publisher.Publish(event); err != nil {
		log.Printf("publish error: %v", err)
	}
}

func (l *loop) refresh() {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(l.ts.Snapshot(), l.monitor.Counts())
	l.tracker.SetAlarms(l.alarms.Raised())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) command(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		if l.ts.StartSystem() {
			l.reply("started")
		} else {
			l.reply("start refused: %s", l.ts.SystemStatus().Message())
		}
	case "stop":
		l.ts.StopSystem()
		l.reply("stopped")
	case "clear":
		l.ts.ClearSystemFault()
		if l.ts.IsJamActive() {
			l.reply("jam still detected, latch held")
		} else {
			l.reply("jam latch cleared")
		}
	case "request":
		if len(fields) < 2 {
			l.reply("usage: request <id>")
			return
		}
		id := fields[1]
		if l.ts.RequestMovement(id) {
			l.reply("movement %s accepted", id)
		} else {
			l.reply("movement %s refused: %s", id, l.ts.SystemStatus().Message())
		}
	case "hold":
		l.ts.HoldMovement()
		l.reply("held")
	case "status":
		l.reply("%s", l.ts.SystemStatus().Message())
	case "estop", "fault", "jam":
		if l.sim == nil {
			l.reply("%s: only available with --simulate", fields[0])
			return
		}
		l.toggle(strings.ToLower(fields[0]))
	case "help":
		l.reply("commands: start stop clear request <id> hold status help")
		if l.sim != nil {
			l.reply("simulation: estop fault jam")
		}
	default:
		l.reply("unknown command %q", fields[0])
	}
}

func (l *loop) toggle(name string) {
	var v bool
	switch name {
	case "estop":
		l.sim.EStopAsserted = !l.sim.EStopAsserted
		v = l.sim.EStopAsserted
	case "fault":
		l.sim.FaultAsserted = !l.sim.FaultAsserted
		v = l.sim.FaultAsserted
	case "jam":
		l.sim.Jammed = !l.sim.Jammed
		v = l.sim.Jammed
	}
	l.reply("simulated %s: %s", name, assertedString(v))
}

func (l *loop) reply(format string, args ...any) {
	if l.out == nil {
		return
	}
	fmt.Fprintf(l.out, format+"\n", args...)
}

// readConsole streams lines from r. The channel closes at EOF or once
// done is closed and the next line has been read.
func readConsole(r io.Reader, done <-chan struct{}) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case <-done:
				return
			default:
			}
			select {
			case ch <- sc.Text():
			case <-done:
				return
			}
		}
		if err := sc.Err(); err != nil {
			log.Printf("console: %v", err)
		}
	}()
	return ch
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func assertedString(on bool) string {
	if on {
		return "ASSERTED"
	}
	return "clear"
}

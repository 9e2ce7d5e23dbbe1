package mqtt

import (
	"github.com/sweeney/conveyor-interlock/internal/alarm"
	"github.com/sweeney/conveyor-interlock/internal/interlock"
)

// Message is one recorded publish as it would reach the broker.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records what would be published, per topic, for assertions.
// It is not safe for concurrent use.
type FakePublisher struct {
	Events       []interlock.Event
	Alarms       []alarm.Alarm
	SystemEvents []SystemEvent

	// Messages holds every successful publish in order, across topics.
	Messages []Message

	// FailPublish is returned by Publish and PublishAlarm when set.
	FailPublish error
	// FailSystem is returned by PublishSystem when set.
	FailSystem error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates an empty FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) record(topic string, retained bool, payload []byte) {
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload, Retained: retained})
}

// Publish records an interlock event on Topic.
func (f *FakePublisher) Publish(event interlock.Event) error {
	if f.FailPublish != nil {
		return f.FailPublish
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.record(Topic, false, payload)
	return nil
}

// PublishAlarm records an alarm on TopicAlarms.
func (f *FakePublisher) PublishAlarm(a alarm.Alarm) error {
	if f.FailPublish != nil {
		return f.FailPublish
	}
	payload, err := FormatAlarmPayload(a)
	if err != nil {
		return err
	}
	f.Alarms = append(f.Alarms, a)
	f.record(TopicAlarms, false, payload)
	return nil
}

// PublishSystem records a system event on TopicSystem.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.FailSystem != nil {
		return f.FailSystem
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.record(TopicSystem, event.Retained, payload)
	return nil
}

// Payloads returns the recorded payloads for topic, in publish order.
func (f *FakePublisher) Payloads(topic string) [][]byte {
	var out [][]byte
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m.Payload)
		}
	}
	return out
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset returns the fake to its initial state.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}

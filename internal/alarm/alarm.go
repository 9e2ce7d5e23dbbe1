// Package alarm is the alarm and log collaborator for the interlock.
// Alarms are stamped, logged, journaled and forwarded; delivery never fails
// from the caller's point of view.
package alarm

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Alarm is a single raised alarm.
type Alarm struct {
	ID        string
	Timestamp time.Time
	Message   string
}

// Store persists alarms.
type Store interface {
	Append(ctx context.Context, a Alarm) error
}

// Forwarder delivers alarms to an external system (e.g. MQTT).
type Forwarder interface {
	PublishAlarm(a Alarm) error
}

// storeTimeout bounds a single journal write.
const storeTimeout = 2 * time.Second

// Service implements interlock.Notifier.
// Not safe for concurrent use; it is driven from the control loop.
type Service struct {
	store      Store
	forwarders []Forwarder
	now        func() time.Time
	newID      func() string
	raised     int
}

// NewService creates a Service. store may be nil to skip journaling.
func NewService(store Store, forwarders ...Forwarder) *Service {
	return &Service{
		store:      store,
		forwarders: forwarders,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// AddForwarder registers another delivery target.
func (s *Service) AddForwarder(f Forwarder) {
	s.forwarders = append(s.forwarders, f)
}

// Notify raises an alarm with the given message.
func (s *Service) Notify(message string) {
	s.Raise(message)
}

// Raise stamps, logs, stores and forwards an alarm and returns it.
// Storage and forwarding errors are logged, not returned.
func (s *Service) Raise(message string) Alarm {
	a := Alarm{
		ID:        s.newID(),
		Timestamp: s.now(),
		Message:   message,
	}
	s.raised++
	log.Printf("ALARM: %s", message)

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := s.store.Append(ctx, a); err != nil {
			log.Printf("alarm: journal append failed: %v", err)
		}
		cancel()
	}
	for _, f := range s.forwarders {
		if err := f.PublishAlarm(a); err != nil {
			log.Printf("alarm: forward failed: %v", err)
		}
	}
	return a
}

// Raised returns the number of alarms raised since startup.
func (s *Service) Raised() int {
	return s.raised
}

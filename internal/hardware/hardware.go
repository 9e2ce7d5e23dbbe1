// Package hardware provides the conveyor's safety inputs, jam sensor and
// motor driver with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The simulated implementation allows running and testing without hardware.
package hardware

import "fmt"

// Pin definitions (BCM numbering)
const (
	DefaultPinEStop = 17 // Emergency stop, active low
	DefaultPinFault = 27 // Drive fault, active low
	DefaultPinJam   = 22 // Jam photo-eye, active low
	DefaultPinMotor = 23 // Motor contactor, active high
)

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Pins maps each signal to a BCM line offset.
type Pins struct {
	EStop int `yaml:"estop"`
	Fault int `yaml:"fault"`
	Jam   int `yaml:"jam"`
	Motor int `yaml:"motor"`
}

// DefaultPins returns the standard wiring.
func DefaultPins() Pins {
	return Pins{
		EStop: DefaultPinEStop,
		Fault: DefaultPinFault,
		Jam:   DefaultPinJam,
		Motor: DefaultPinMotor,
	}
}

// Validate checks that every pin is non-negative and used once.
func (p Pins) Validate() error {
	seen := make(map[int]string, 4)
	for _, pin := range []struct {
		name   string
		offset int
	}{
		{"estop", p.EStop},
		{"fault", p.Fault},
		{"jam", p.Jam},
		{"motor", p.Motor},
	} {
		if pin.offset < 0 {
			return fmt.Errorf("pin %s: negative offset %d", pin.name, pin.offset)
		}
		if other, ok := seen[pin.offset]; ok {
			return fmt.Errorf("pin %s: offset %d already used by %s", pin.name, pin.offset, other)
		}
		seen[pin.offset] = pin.name
	}
	return nil
}

// Sample is a point-in-time reading of every signal.
type Sample struct {
	EStop   bool
	Fault   bool
	Jam     bool
	Running bool
}

// Device is implemented by every hardware backend.
type Device interface {
	EStop() bool
	Fault() bool
	JamDetected() bool
	StartForward()
	Stop()
	IsRunning() bool
	// Close releases hardware resources.
	Close() error
}

// Read samples every signal of d.
func Read(d Device) Sample {
	return Sample{
		EStop:   d.EStop(),
		Fault:   d.Fault(),
		Jam:     d.JamDetected(),
		Running: d.IsRunning(),
	}
}

//go:build linux

package hardware

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"
)

// RealHardware drives the conveyor through the Linux GPIO character device.
// Inputs are active low with pull-up, so a broken wire reads as asserted.
type RealHardware struct {
	chip    *gpiocdev.Chip
	estop   *gpiocdev.Line
	fault   *gpiocdev.Line
	jam     *gpiocdev.Line
	motor   *gpiocdev.Line
	running bool
}

// NewRealHardware requests the configured lines on the given chip.
// The motor line is driven low (stopped) on request.
func NewRealHardware(chipName string, pins Pins) (*RealHardware, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	h := &RealHardware{chip: chip}
	inputs := []struct {
		name string
		pin  int
		dst  **gpiocdev.Line
	}{
		{"E-Stop", pins.EStop, &h.estop},
		{"Fault", pins.Fault, &h.fault},
		{"Jam", pins.Jam, &h.jam},
	}
	for _, in := range inputs {
		line, err := chip.RequestLine(in.pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", in.name, in.pin, err)
		}
		*in.dst = line
	}

	motor, err := chip.RequestLine(pins.Motor, gpiocdev.AsOutput(0))
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("request motor pin %d: %w", pins.Motor, err)
	}
	h.motor = motor

	return h, nil
}

// readAsserted returns the logical value of an input line.
// Read errors report the signal as asserted.
func readAsserted(name string, line *gpiocdev.Line) bool {
	v, err := line.Value()
	if err != nil {
		log.Printf("hardware: read %s: %v (treating as asserted)", name, err)
		return true
	}
	return v == 1
}

// EStop reports whether the emergency stop is pressed.
func (h *RealHardware) EStop() bool { return readAsserted("E-Stop", h.estop) }

// Fault reports whether the drive fault input is active.
func (h *RealHardware) Fault() bool { return readAsserted("Fault", h.fault) }

// JamDetected reports whether the jam photo-eye is blocked.
func (h *RealHardware) JamDetected() bool { return readAsserted("Jam", h.jam) }

// StartForward energises the motor contactor.
// On write failure the cached state stays stopped.
func (h *RealHardware) StartForward() {
	if err := h.motor.SetValue(1); err != nil {
		log.Printf("hardware: start motor: %v", err)
		return
	}
	h.running = true
}

// Stop de-energises the motor contactor. The cached state is cleared even if
// the write fails.
func (h *RealHardware) Stop() {
	if err := h.motor.SetValue(0); err != nil {
		log.Printf("hardware: stop motor: %v", err)
	}
	h.running = false
}

// IsRunning returns the last commanded motor state.
func (h *RealHardware) IsRunning() bool { return h.running }

// Close stops the motor and releases GPIO resources.
// Input lines are reconfigured to input with pull-down (Pi boot default)
// before closing.
func (h *RealHardware) Close() error {
	var errs []error

	if h.motor != nil {
		if err := h.motor.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("stop motor: %w", err))
		}
		if err := h.motor.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure motor pin: %w", err))
		}
		if err := h.motor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close motor pin: %w", err))
		}
		h.running = false
	}
	for _, in := range []struct {
		name string
		line *gpiocdev.Line
	}{
		{"E-Stop", h.estop},
		{"Fault", h.fault},
		{"Jam", h.jam},
	} {
		if in.line == nil {
			continue
		}
		if err := in.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", in.name, err))
		}
		if err := in.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", in.name, err))
		}
	}
	if h.chip != nil {
		if err := h.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

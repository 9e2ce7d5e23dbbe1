//go:build !linux

package hardware

import "errors"

// RealHardware is not available on non-Linux platforms.
type RealHardware struct{}

// NewRealHardware returns an error on non-Linux platforms.
func NewRealHardware(chipName string, pins Pins) (*RealHardware, error) {
	return nil, errors.New("hardware: gpio not supported on this platform (requires Linux)")
}

func (h *RealHardware) EStop() bool       { return true }
func (h *RealHardware) Fault() bool       { return true }
func (h *RealHardware) JamDetected() bool { return true }
func (h *RealHardware) StartForward()     {}
func (h *RealHardware) Stop()             {}
func (h *RealHardware) IsRunning() bool   { return false }

// Close is not implemented on non-Linux platforms.
func (h *RealHardware) Close() error {
	return nil
}

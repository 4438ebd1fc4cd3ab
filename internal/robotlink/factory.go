package robotlink

import (
	"go.bug.st/serial"
)

// NewRealLink creates a Link instance backed by a real serial port at the
// given path using the provided serial options.
func NewRealLink(path string, opts PortOptions) (*Link[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewLink[serial.Port](port), nil
}

// RealPortFactory implements PortFactory using the host serial devices.
type RealPortFactory struct{}

// NewRealPortFactory creates a new RealPortFactory.
func NewRealPortFactory() *RealPortFactory {
	return &RealPortFactory{}
}

// Open opens the serial device at path. A nil mode uses DefaultPortMode.
func (f *RealPortFactory) Open(path string, mode *PortMode) (RobotPorter, error) {
	if mode == nil {
		mode = DefaultPortMode()
	}

	serialMode := &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
		Parity:   convertParity(mode.Parity),
		StopBits: convertStopBits(mode.StopBits),
	}

	return serial.Open(path, serialMode)
}

func convertParity(p Parity) serial.Parity {
	switch p {
	case OddParity:
		return serial.OddParity
	case EvenParity:
		return serial.EvenParity
	default:
		return serial.NoParity
	}
}

func convertStopBits(s StopBits) serial.StopBits {
	switch s {
	case TwoStopBits:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

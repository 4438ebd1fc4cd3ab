package robotlink

import (
	"io"
	"time"
)

// RobotPorter defines the minimal interface needed for the robot's
// serial connection. This abstraction enables unit testing without the
// wall robot attached.
type RobotPorter interface {
	io.ReadWriter
	io.Closer
}

// PortMode defines serial port configuration parameters.
type PortMode struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// Parity defines serial port parity options.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
)

// StopBits defines serial port stop bit options.
type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// DefaultPortMode returns the mode the wall robot controller ships
// with.
func DefaultPortMode() *PortMode {
	return &PortMode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   NoParity,
		StopBits: OneStopBit,
	}
}

// PortFactory defines an interface for creating robot ports.
// This abstraction enables dependency injection of port creation.
type PortFactory interface {
	// Open opens a port at the specified path with the given mode.
	Open(path string, mode *PortMode) (RobotPorter, error)
}

// PortOpener is a function type for opening robot ports.
// This allows for easier testing by replacing the opener function.
type PortOpener func(path string, mode *PortMode) (RobotPorter, error)

// TimeoutRobotPorter extends RobotPorter with timeout capabilities.
// This is an optional interface that ports may implement.
type TimeoutRobotPorter interface {
	RobotPorter
	// SetReadTimeout sets the read timeout for the port.
	SetReadTimeout(timeout time.Duration) error
}

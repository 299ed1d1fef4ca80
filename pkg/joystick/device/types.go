// Package device reads the Linux joystick API (/dev/input/jsN).
package device

import (
	"errors"
	"io"
)

// AxisMax is the magnitude of a fully deflected axis.
const AxisMax = 32767

// ErrUnsupported is returned on platforms without the joystick API.
var ErrUnsupported = errors.New("joystick unsupported")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates the event reports initial state after open.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until the next event. Unknown event types are
	// returned as plain Events.
	ReadEvent() (Event, error)
}

// Normalize maps a raw axis value to [-1, 1].
func Normalize(val int) float64 {
	switch {
	case val >= AxisMax:
		return 1
	case val <= -AxisMax:
		return -1
	}
	return float64(val) / AxisMax
}

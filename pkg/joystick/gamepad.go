package joystick

import (
	"github.com/robotalks/segbot/pkg/input"
	"github.com/robotalks/segbot/pkg/joystick/device"
)

// Mapping assigns device axes and buttons to gamepad controls. A
// negative index leaves the control unmapped.
type Mapping struct {
	LeftY  int `yaml:"leftY"`
	RightY int `yaml:"rightY"`
	// HatX and HatY are the D-pad when it reports as axes.
	HatX int `yaml:"hatX"`
	HatY int `yaml:"hatY"`
	// Up, Down, Left and Right are the D-pad when it reports as buttons.
	Up    int `yaml:"up"`
	Down  int `yaml:"down"`
	Left  int `yaml:"left"`
	Right int `yaml:"right"`
}

// DefaultMapping fits the Linux xpad driver.
var DefaultMapping = Mapping{
	LeftY:  1,
	RightY: 4,
	HatX:   6,
	HatY:   7,
	Up:     -1,
	Down:   -1,
	Left:   -1,
	Right:  -1,
}

// Gamepad is the state of a joystick as the rest of the program sees
// it. It implements input.Axes. It's owned by the loop goroutine.
type Gamepad struct {
	Mapping Mapping

	connected bool
	name      string
	axes      map[int]int
	buttons   input.Buttons
}

// NewGamepad creates a disconnected Gamepad.
func NewGamepad(m Mapping) *Gamepad {
	return &Gamepad{Mapping: m, axes: make(map[int]int)}
}

// IsConnected implements input.Axes.
func (g *Gamepad) IsConnected() bool {
	return g.connected
}

// Name returns the device name, empty when disconnected.
func (g *Gamepad) Name() string {
	return g.name
}

// AxisLeftY implements input.Axes.
func (g *Gamepad) AxisLeftY() float64 {
	return g.axis(g.Mapping.LeftY)
}

// AxisRightY implements input.Axes.
func (g *Gamepad) AxisRightY() float64 {
	return g.axis(g.Mapping.RightY)
}

func (g *Gamepad) axis(index int) float64 {
	if index < 0 {
		return 0
	}
	return device.Normalize(g.axes[index])
}

// Attach marks the gamepad connected.
func (g *Gamepad) Attach(name string) {
	g.connected, g.name = true, name
}

// Detach marks the gamepad disconnected and releases everything held.
func (g *Gamepad) Detach() []input.Edge {
	var edges []input.Edge
	for d := input.Forward; d < input.NumDirections; d++ {
		if g.buttons.Set(d, false) {
			edges = append(edges, input.Edge{Direction: d})
		}
	}
	g.connected, g.name = false, ""
	g.axes = make(map[int]int)
	return edges
}

// HandleEvent updates the state and returns directional edges.
func (g *Gamepad) HandleEvent(ev device.Event) []input.Edge {
	switch e := ev.(type) {
	case device.AxisEvent:
		g.axes[e.Index()] = e.Value()
		switch e.Index() {
		case g.Mapping.HatX:
			return g.buttons.SetAxis(input.Left, input.Right, e.Value())
		case g.Mapping.HatY:
			return g.buttons.SetAxis(input.Forward, input.Reverse, e.Value())
		}
	case device.ButtonEvent:
		dir, ok := g.buttonDirection(e.Index())
		if ok && g.buttons.Set(dir, e.Pressed()) {
			return []input.Edge{{Direction: dir, Pressed: e.Pressed()}}
		}
	}
	return nil
}

func (g *Gamepad) buttonDirection(index int) (input.Direction, bool) {
	switch index {
	case g.Mapping.Up:
		return input.Forward, true
	case g.Mapping.Down:
		return input.Reverse, true
	case g.Mapping.Left:
		return input.Left, true
	case g.Mapping.Right:
		return input.Right, true
	}
	return 0, false
}

// Package input maps controller state to SegBot commands.
package input

import (
	"strconv"

	"github.com/robotalks/segbot/pkg/protocol"
)

// Fixed motion magnitudes.
const (
	MoveSpeed = 8
	TurnSpeed = 50
)

// Direction is one of the four directional buttons.
type Direction int

// Directions.
const (
	Forward Direction = iota
	Reverse
	Left
	Right
	NumDirections
)

var directionNames = [NumDirections]string{"forward", "reverse", "left", "right"}

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d >= 0 && d < NumDirections {
		return directionNames[d]
	}
	return "direction(" + strconv.Itoa(int(d)) + ")"
}

// ParseDirection parses the String form.
func ParseDirection(s string) (Direction, bool) {
	for n, name := range directionNames {
		if name == s {
			return Direction(n), true
		}
	}
	return 0, false
}

// MotionCommand maps a button edge to a command. Releasing any button
// stops, even if another one is still held.
func MotionCommand(d Direction, pressed bool) protocol.Command {
	if !pressed {
		return protocol.Stop()
	}
	switch d {
	case Forward:
		return protocol.Move(MoveSpeed)
	case Reverse:
		return protocol.Move(-MoveSpeed)
	case Left:
		return protocol.TurnLeft(TurnSpeed)
	case Right:
		return protocol.TurnRight(TurnSpeed)
	}
	return protocol.Stop()
}

// Edge is a change of a directional button.
type Edge struct {
	Direction Direction
	Pressed   bool
}

// Buttons tracks directional buttons and turns levels into edges.
type Buttons struct {
	pressed [NumDirections]bool
}

// Set records the level of a button and reports whether it's an edge.
func (b *Buttons) Set(d Direction, pressed bool) bool {
	if d < 0 || d >= NumDirections || b.pressed[d] == pressed {
		return false
	}
	b.pressed[d] = pressed
	return true
}

// IsPressed returns the current level.
func (b *Buttons) IsPressed(d Direction) bool {
	return d >= 0 && d < NumDirections && b.pressed[d]
}

// SetAxis derives edges from a hat axis: negative presses neg,
// positive presses pos and 0 releases both. Edges are returned in
// release then press order.
func (b *Buttons) SetAxis(neg, pos Direction, val int) []Edge {
	var edges []Edge
	if val >= 0 && b.Set(neg, false) {
		edges = append(edges, Edge{Direction: neg})
	}
	if val <= 0 && b.Set(pos, false) {
		edges = append(edges, Edge{Direction: pos})
	}
	if val < 0 && b.Set(neg, true) {
		edges = append(edges, Edge{Direction: neg, Pressed: true})
	}
	if val > 0 && b.Set(pos, true) {
		edges = append(edges, Edge{Direction: pos, Pressed: true})
	}
	return edges
}

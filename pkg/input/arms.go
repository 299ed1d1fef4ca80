package input

import (
	"math"

	"github.com/robotalks/segbot/pkg/protocol"
)

// Arm mapping: a fully deflected stick moves the servo this many
// degrees away from center.
const (
	ArmCenter = 90
	ArmRange  = 30
)

// Axes is an analog input source. Y axes are normalized to [-1, 1].
type Axes interface {
	IsConnected() bool
	AxisLeftY() float64
	AxisRightY() float64
}

// ServoState holds the last position sent to each servo.
type ServoState struct {
	Left  int
	Right int
}

// Arms converts stick positions into servo commands.
type Arms struct {
	state ServoState
}

// State returns the last positions sent.
func (a *Arms) State() ServoState {
	return a.state
}

// ServoPositions computes the servo positions for stick values.
func ServoPositions(leftY, rightY float64) ServoState {
	return ServoState{
		Left:  clampServo(math.Round(ArmCenter + leftY*ArmRange)),
		Right: clampServo(math.Round(ArmCenter - rightY*ArmRange)),
	}
}

func clampServo(pos float64) int {
	switch {
	case math.IsNaN(pos):
		return ArmCenter
	case pos < protocol.ServoMin:
		return protocol.ServoMin
	case pos > protocol.ServoMax:
		return protocol.ServoMax
	}
	return int(pos)
}

// Update samples src and returns the servo commands for positions that
// changed, right servo first. The positions are recorded as sent. It
// does nothing when src is nil or disconnected.
func (a *Arms) Update(src Axes) []protocol.Command {
	if src == nil || !src.IsConnected() {
		return nil
	}
	pos := ServoPositions(src.AxisLeftY(), src.AxisRightY())
	var cmds []protocol.Command
	if pos.Right != a.state.Right {
		a.state.Right = pos.Right
		cmds = append(cmds, protocol.Servo(protocol.ServoRight, pos.Right))
	}
	if pos.Left != a.state.Left {
		a.state.Left = pos.Left
		cmds = append(cmds, protocol.Servo(protocol.ServoLeft, pos.Left))
	}
	return cmds
}

package protocol

import (
	"bytes"
	"fmt"
	"strconv"
)

// Query names understood by the firmware.
const (
	QueryAngle      = "angle"
	QuerySpeedLeft  = "speedLeft"
	QuerySpeedRight = "speedRight"
	QueryDistance   = "distance"
	QueryVoltage    = "voltage"
)

// Servo channels.
const (
	ServoLeft  = 0
	ServoRight = 1
)

// Servo position range in degrees.
const (
	ServoMin = 0
	ServoMax = 180
)

// QueryNames lists all queries in polling order.
var QueryNames = []string{
	QueryAngle,
	QuerySpeedLeft,
	QuerySpeedRight,
	QueryDistance,
	QueryVoltage,
}

// IsQueryName checks name is a known query.
func IsQueryName(name string) bool {
	for _, n := range QueryNames {
		if n == name {
			return true
		}
	}
	return false
}

// Kind tags the variant of a Command.
type Kind int

// Command kinds.
const (
	KindQuery Kind = iota
	KindMove
	KindTurnLeft
	KindTurnRight
	KindStop
	KindServo
)

var kindNames = map[Kind]string{
	KindQuery:     "query",
	KindMove:      "move",
	KindTurnLeft:  "turnLeft",
	KindTurnRight: "turnRight",
	KindStop:      "stop",
	KindServo:     "servo",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Command is an outbound request. Only the fields relevant to Kind are
// meaningful.
type Command struct {
	Kind Kind
	// Name is the query name for KindQuery.
	Name string
	// Speed for move and turn commands. Signed for move.
	Speed int
	// Channel and Position for KindServo.
	Channel  int
	Position int
}

// Query creates a telemetry query.
func Query(name string) Command {
	return Command{Kind: KindQuery, Name: name}
}

// Move drives forward (speed > 0) or backward.
func Move(speed int) Command {
	return Command{Kind: KindMove, Speed: speed}
}

// TurnLeft turns in place.
func TurnLeft(speed int) Command {
	return Command{Kind: KindTurnLeft, Speed: speed}
}

// TurnRight turns in place.
func TurnRight(speed int) Command {
	return Command{Kind: KindTurnRight, Speed: speed}
}

// Stop stops motion.
func Stop() Command {
	return Command{Kind: KindStop}
}

// Servo sets the position of a servo.
func Servo(channel, position int) Command {
	return Command{Kind: KindServo, Channel: channel, Position: position}
}

// IsQuery indicates the command expects a telemetry reply.
func (c Command) IsQuery() bool {
	return c.Kind == KindQuery
}

// Validate checks the arguments are in range.
func (c Command) Validate() error {
	switch c.Kind {
	case KindQuery:
		if !IsQueryName(c.Name) {
			return fmt.Errorf("%w: unknown query %q", ErrInvalidCommand, c.Name)
		}
	case KindMove, KindStop:
	case KindTurnLeft, KindTurnRight:
		if c.Speed < 0 {
			return fmt.Errorf("%w: %s speed %d", ErrInvalidCommand, c.Kind, c.Speed)
		}
	case KindServo:
		if c.Channel != ServoLeft && c.Channel != ServoRight {
			return fmt.Errorf("%w: servo channel %d", ErrInvalidCommand, c.Channel)
		}
		if c.Position < ServoMin || c.Position > ServoMax {
			return fmt.Errorf("%w: servo position %d", ErrInvalidCommand, c.Position)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidCommand, c.Kind)
	}
	return nil
}

// Encode returns the wire form without the line terminator.
func (c Command) Encode() []byte {
	b := make([]byte, 0, 24)
	switch c.Kind {
	case KindQuery:
		b = append(append(b, '?'), c.Name...)
	case KindMove, KindTurnLeft, KindTurnRight:
		b = append(append(b, '!'), c.Kind.String()...)
		b = strconv.AppendInt(append(b, ':'), int64(c.Speed), 10)
	case KindStop:
		b = append(b, "!stop"...)
	case KindServo:
		b = append(b, "!servo:"...)
		b = strconv.AppendInt(b, int64(c.Channel), 10)
		b = strconv.AppendInt(append(b, ':'), int64(c.Position), 10)
	}
	return b
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return string(c.Encode())
}

// DecodeCommand parses an outbound line back into a Command.
func DecodeCommand(line []byte) (Command, error) {
	line = trimEOL(line)
	if len(line) < 2 {
		return Command{}, fmt.Errorf("%w: %q", ErrParseFailed, line)
	}
	body := line[1:]
	switch line[0] {
	case '?':
		name := string(body)
		if !IsQueryName(name) {
			return Command{}, fmt.Errorf("%w: unknown query %q", ErrParseFailed, line)
		}
		return Query(name), nil
	case '!':
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrParseFailed, line)
	}
	fields := bytes.Split(body, []byte{':'})
	args := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(string(f))
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q: %v", ErrParseFailed, line, err)
		}
		args = append(args, n)
	}
	var cmd Command
	switch name := string(fields[0]); {
	case name == KindStop.String() && len(args) == 0:
		cmd = Stop()
	case name == KindMove.String() && len(args) == 1:
		cmd = Move(args[0])
	case name == KindTurnLeft.String() && len(args) == 1:
		cmd = TurnLeft(args[0])
	case name == KindTurnRight.String() && len(args) == 1:
		cmd = TurnRight(args[0])
	case name == KindServo.String() && len(args) == 2:
		cmd = Servo(args[0], args[1])
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrParseFailed, line)
	}
	return cmd, nil
}

func trimEOL(line []byte) []byte {
	return bytes.TrimRight(line, "\r\n")
}

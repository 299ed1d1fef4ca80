package segbot

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/segbot/pkg/framework"
	"github.com/robotalks/segbot/pkg/input"
	"github.com/robotalks/segbot/pkg/telemetry"
)

// Messages other goroutines post to the loop to drive a Communicator.
type (
	// SetDeviceMsg requests SetDevice.
	SetDeviceMsg struct {
		Path string
	}
	// SetUpdateIntervalMsg requests SetUpdateInterval in milliseconds.
	SetUpdateIntervalMsg struct {
		Interval int
	}
	// DirectionMsg is a directional button edge.
	DirectionMsg struct {
		Direction input.Direction
		Pressed   bool
	}
	// StopMsg requests Stop.
	StopMsg struct{}
	// ServoMsg requests SetServo.
	ServoMsg struct {
		Channel  int
		Position int
	}
	// CloseMsg requests Close.
	CloseMsg struct{}
	// StatusQueryMsg requests a Status to be sent on ReplyCh, which
	// must be buffered.
	StatusQueryMsg struct {
		ReplyCh chan<- Status
	}
)

// Status is a full report of the Communicator state.
type Status struct {
	State
	Interval  time.Duration      `json:"interval"`
	Telemetry telemetry.Snapshot `json:"telemetry"`
	Servos    input.ServoState   `json:"servos"`
}

// Status returns a full report.
func (c *Communicator) Status() Status {
	return Status{
		State:     c.State(),
		Interval:  c.interval,
		Telemetry: c.Snapshot(),
		Servos:    c.Servos(),
	}
}

// ProcessMessage implements MessageProcessor.
func (c *Communicator) ProcessMessage(mctx fx.MessageProcessingContext) {
	switch msg := mctx.CurrentMessage().(type) {
	case *SetDeviceMsg:
		mctx.MessageTaken()
		c.SetDevice(msg.Path)
	case *SetUpdateIntervalMsg:
		mctx.MessageTaken()
		c.SetUpdateInterval(msg.Interval)
	case *DirectionMsg:
		mctx.MessageTaken()
		c.direction(msg.Direction, msg.Pressed)
	case *StopMsg:
		mctx.MessageTaken()
		c.Stop()
	case *ServoMsg:
		mctx.MessageTaken()
		if err := c.SetServo(msg.Channel, msg.Position); err != nil {
			glog.Warningf("servo: %v", err)
		}
	case *CloseMsg:
		mctx.MessageTaken()
		c.Close()
	case *StatusQueryMsg:
		mctx.MessageTaken()
		select {
		case msg.ReplyCh <- c.Status():
		default:
		}
	}
}

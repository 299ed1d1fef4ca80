package mqtt

import (
	"context"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/segbot/pkg/msgs"
	"github.com/robotalks/segbot/pkg/segbot"
)

// Topic names under <prefix>segbot/<robot-id>/.
const (
	TopicTelemetry = "telemetry"
	TopicState     = "state"
	TopicMeta      = "meta"
)

// RobotTopic returns the topic of a robot.
func RobotTopic(robotID, name string) string {
	return "segbot/" + robotID + "/" + name
}

// Broker is where a Publisher sends, e.g. *Queue.
type Broker interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Publisher publishes Communicator notifications as retained messages.
// It implements segbot.Observer and must be subscribed on the loop.
type Publisher struct {
	RobotID string

	broker    Broker
	queue     *Queue
	telemetry msgs.Telemetry
	state     msgs.DeviceState
}

// NewPublisher creates a Publisher on a Queue.
func NewPublisher(q *Queue, robotID string) *Publisher {
	p := &Publisher{RobotID: robotID, broker: q, queue: q}
	q.OnConnect = p.onConnect
	return p
}

// NewPublisherWith creates a Publisher on any Broker.
func NewPublisherWith(b Broker, robotID string) *Publisher {
	return &Publisher{RobotID: robotID, broker: b}
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "mqtt-publisher"
}

// Run implements Runnable. It connects the queue and disconnects when
// ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if p.queue == nil {
		return nil
	}
	if token := p.queue.Connect(); token.Wait() && token.Error() != nil {
		glog.Warningf("mqtt connect: %v", token.Error())
	}
	<-ctx.Done()
	p.queue.Close()
	return ctx.Err()
}

func (p *Publisher) onConnect(q *Queue) {
	p.publish(TopicMeta, []byte(`{"type":"segbot","id":"`+p.RobotID+`"}`))
}

func (p *Publisher) publish(name string, payload []byte) {
	topic := RobotTopic(p.RobotID, name)
	glog.V(3).Infof("PUB %q", topic)
	p.broker.PubWith(topic, payload, 0, true)
}

func (p *Publisher) publishMsg(name string, msg msgs.SerializableMessage) {
	data, err := msgs.Encode(msg)
	if err != nil {
		glog.Errorf("encode %s: %v", name, err)
		return
	}
	p.publish(name, data)
}

func (p *Publisher) telemetryChanged(update func(*msgs.Telemetry)) {
	update(&p.telemetry)
	t := p.telemetry
	p.publishMsg(TopicTelemetry, &t)
}

// AngleChanged implements segbot.Observer.
func (p *Publisher) AngleChanged(val int) {
	p.telemetryChanged(func(t *msgs.Telemetry) { t.Angle = int32(val) })
}

// SpeedLeftChanged implements segbot.Observer.
func (p *Publisher) SpeedLeftChanged(val int) {
	p.telemetryChanged(func(t *msgs.Telemetry) { t.SpeedLeft = int32(val) })
}

// SpeedRightChanged implements segbot.Observer.
func (p *Publisher) SpeedRightChanged(val int) {
	p.telemetryChanged(func(t *msgs.Telemetry) { t.SpeedRight = int32(val) })
}

// SensorDistanceChanged implements segbot.Observer.
func (p *Publisher) SensorDistanceChanged(val int) {
	p.telemetryChanged(func(t *msgs.Telemetry) { t.Distance = int32(val) })
}

// VoltageChanged implements segbot.Observer.
func (p *Publisher) VoltageChanged(val int) {
	p.telemetryChanged(func(t *msgs.Telemetry) { t.Voltage = int32(val) })
}

// ErrorStringChanged implements segbot.Observer.
func (p *Publisher) ErrorStringChanged(s string) {
	p.state.Error = s
	st := p.state
	p.publishMsg(TopicState, &st)
}

// StateChanged implements segbot.StateObserver.
func (p *Publisher) StateChanged(st segbot.State) {
	p.state = msgs.DeviceState{
		Device: st.Device,
		Open:   st.Open,
		Active: st.Active,
		Error:  st.Error,
	}
	state := p.state
	p.publishMsg(TopicState, &state)
}

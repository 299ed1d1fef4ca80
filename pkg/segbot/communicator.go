// Package segbot implements the host side communicator of the SegBot:
// it owns the tty to the co-processor, polls telemetry, and turns
// controller input into drive, turn and servo commands.
package segbot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/segbot/pkg/framework"
	"github.com/robotalks/segbot/pkg/input"
	"github.com/robotalks/segbot/pkg/protocol"
	"github.com/robotalks/segbot/pkg/telemetry"
	"github.com/robotalks/segbot/pkg/tty"
)

// ArmInterval is the period of the arm task.
const ArmInterval = 100 * time.Millisecond

// ErrNotInitialized is returned by SetDevice before Init.
var ErrNotInitialized = errors.New("communicator not initialized")

// Communicator wires the tty, the telemetry poller and the input
// mappers together. Except where noted, methods must be called on the
// loop goroutine.
type Communicator struct {
	// Opener opens the tty, nil for tty.DefaultOpener.
	Opener tty.Opener

	opts     tty.Options
	interval time.Duration

	updateTimer *fx.Timer
	armTimer    *fx.Timer

	chLock sync.Mutex
	ch     *tty.Channel

	client    *protocol.Client
	device    string
	active    bool
	lastError string

	poller    *telemetry.Poller
	arms      input.Arms
	axes      input.Axes
	observers []Observer
}

// New creates an inert Communicator.
func New(conf Config) *Communicator {
	c := &Communicator{
		opts:     conf.TTYOptions(),
		interval: clampInterval(conf.Interval),
		poller:   telemetry.NewPoller(),
	}
	c.poller.Subscribe(telemetry.ListenerFunc(c.telemetryChanged))
	return c
}

// Init creates the periodic tasks on the loop without starting them.
func (c *Communicator) Init(loop *fx.Loop) {
	if c.updateTimer != nil {
		return
	}
	c.updateTimer = loop.NewTimer("telemetry", c.pollTelemetry)
	c.updateTimer.SetInterval(c.interval)
	c.armTimer = loop.NewTimer("arms", c.updateArms)
	c.armTimer.SetInterval(ArmInterval)
}

// AddToLoop implements LoopAdder.
func (c *Communicator) AddToLoop(loop *fx.Loop) {
	c.Init(loop)
	loop.AddProcessor(c)
	loop.AddRunnable(&interrupter{c: c})
}

// Subscribe registers an observer.
func (c *Communicator) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

// SetAxes sets the analog source for the arm task. nil disables it.
func (c *Communicator) SetAxes(axes input.Axes) {
	c.axes = axes
}

// SetDevice closes the current channel and opens path. An empty path
// only closes. On failure the error string is updated and the
// communicator stays inactive.
func (c *Communicator) SetDevice(path string) error {
	if c.updateTimer == nil {
		return ErrNotInitialized
	}
	c.closeChannel()
	c.device = path
	if path == "" {
		c.notifyState()
		return nil
	}
	opener := c.Opener
	if opener == nil {
		opener = tty.DefaultOpener
	}
	ch, err := tty.OpenWith(opener, path, c.opts)
	if err != nil {
		glog.Warningf("device %s: %v", path, err)
		c.setError(err.Error())
		c.notifyState()
		return err
	}
	c.chLock.Lock()
	c.ch = ch
	c.chLock.Unlock()
	c.client = protocol.NewClient(ch)
	c.active = true
	c.setError("")
	c.updateTimer.Start()
	c.armTimer.Start()
	glog.Infof("device %s active", path)
	c.notifyState()
	return nil
}

// SetUpdateInterval changes the telemetry period. Values below 1ms are
// clamped. It returns the interval in effect.
func (c *Communicator) SetUpdateInterval(ms int) time.Duration {
	c.interval = clampInterval(ms)
	if c.updateTimer != nil {
		c.updateTimer.SetInterval(c.interval)
	}
	return c.interval
}

// UpdateInterval returns the telemetry period.
func (c *Communicator) UpdateInterval() time.Duration {
	return c.interval
}

// Close stops both tasks and closes the channel. It never fails.
func (c *Communicator) Close() error {
	wasOpen := c.IsOpen()
	c.closeChannel()
	if wasOpen {
		c.notifyState()
	}
	return nil
}

func (c *Communicator) closeChannel() {
	if c.updateTimer != nil {
		c.updateTimer.Stop()
		c.armTimer.Stop()
	}
	c.active, c.client = false, nil
	c.chLock.Lock()
	ch := c.ch
	c.ch = nil
	c.chLock.Unlock()
	if ch != nil {
		ch.Close()
		glog.Infof("device %s closed", ch.Path())
	}
}

// interrupt closes the channel from another goroutine so a blocked
// read returns.
func (c *Communicator) interrupt() {
	c.chLock.Lock()
	ch := c.ch
	c.chLock.Unlock()
	if ch != nil {
		ch.Close()
	}
}

// Device returns the last device path set.
func (c *Communicator) Device() string {
	return c.device
}

// IsOpen indicates a channel is open.
func (c *Communicator) IsOpen() bool {
	c.chLock.Lock()
	defer c.chLock.Unlock()
	return c.ch != nil && c.ch.IsOpen()
}

// IsActive indicates commands are sent to the device.
func (c *Communicator) IsActive() bool {
	return c.active && c.IsOpen()
}

// ErrorString returns the last device error, empty if none.
func (c *Communicator) ErrorString() string {
	return c.lastError
}

// Snapshot returns all telemetry values.
func (c *Communicator) Snapshot() telemetry.Snapshot {
	return c.poller.Snapshot()
}

// Angle returns the last observed angle.
func (c *Communicator) Angle() int { return c.poller.Snapshot().Angle }

// SpeedLeft returns the last observed left wheel speed.
func (c *Communicator) SpeedLeft() int { return c.poller.Snapshot().SpeedLeft }

// SpeedRight returns the last observed right wheel speed.
func (c *Communicator) SpeedRight() int { return c.poller.Snapshot().SpeedRight }

// SensorDistance returns the last observed distance sensor value.
func (c *Communicator) SensorDistance() int { return c.poller.Snapshot().Distance }

// Voltage returns the last observed battery voltage.
func (c *Communicator) Voltage() int { return c.poller.Snapshot().Voltage }

// Servos returns the last positions sent to the arm servos.
func (c *Communicator) Servos() input.ServoState {
	return c.arms.State()
}

// State returns the channel state.
func (c *Communicator) State() State {
	return State{
		Device: c.device,
		Open:   c.IsOpen(),
		Active: c.IsActive(),
		Error:  c.lastError,
	}
}

// Forward handles the forward button.
func (c *Communicator) Forward(pressed bool) { c.direction(input.Forward, pressed) }

// Reverse handles the reverse button.
func (c *Communicator) Reverse(pressed bool) { c.direction(input.Reverse, pressed) }

// TurnLeft handles the turn left button.
func (c *Communicator) TurnLeft(pressed bool) { c.direction(input.Left, pressed) }

// TurnRight handles the turn right button.
func (c *Communicator) TurnRight(pressed bool) { c.direction(input.Right, pressed) }

// Stop stops motion.
func (c *Communicator) Stop() {
	c.send(protocol.Stop())
}

// SetServo moves a servo directly.
func (c *Communicator) SetServo(channel, position int) error {
	cmd := protocol.Servo(channel, position)
	if err := cmd.Validate(); err != nil {
		return err
	}
	c.send(cmd)
	return nil
}

// HandleDirection implements joystick.DirectionHandler.
func (c *Communicator) HandleDirection(_ context.Context, d input.Direction, pressed bool) {
	c.direction(d, pressed)
}

func (c *Communicator) direction(d input.Direction, pressed bool) {
	c.send(input.MotionCommand(d, pressed))
}

// send drops the command when inactive and swallows errors.
func (c *Communicator) send(cmd protocol.Command) bool {
	if !c.IsActive() {
		glog.V(3).Infof("inactive, %s dropped", cmd)
		return false
	}
	if err := c.client.Do(cmd); err != nil {
		glog.V(2).Infof("%s: %v", cmd, err)
		return false
	}
	return true
}

func (c *Communicator) pollTelemetry(context.Context) {
	if !c.IsActive() {
		return
	}
	if err := c.poller.Tick(c.client); err != nil {
		glog.V(2).Infof("telemetry tick abandoned: %v", err)
	}
}

func (c *Communicator) updateArms(context.Context) {
	if !c.IsActive() {
		return
	}
	for _, cmd := range c.arms.Update(c.axes) {
		c.send(cmd)
	}
}

func (c *Communicator) telemetryChanged(f telemetry.Field, val int) {
	for _, o := range c.observers {
		switch f {
		case telemetry.FieldAngle:
			o.AngleChanged(val)
		case telemetry.FieldSpeedLeft:
			o.SpeedLeftChanged(val)
		case telemetry.FieldSpeedRight:
			o.SpeedRightChanged(val)
		case telemetry.FieldDistance:
			o.SensorDistanceChanged(val)
		case telemetry.FieldVoltage:
			o.VoltageChanged(val)
		}
	}
}

func (c *Communicator) setError(s string) {
	if s == c.lastError {
		return
	}
	c.lastError = s
	for _, o := range c.observers {
		o.ErrorStringChanged(s)
	}
}

func (c *Communicator) notifyState() {
	st := c.State()
	for _, o := range c.observers {
		if so, ok := o.(StateObserver); ok {
			so.StateChanged(st)
		}
	}
}

func clampInterval(ms int) time.Duration {
	if ms < 1 {
		return fx.MinTimerInterval
	}
	return time.Duration(ms) * time.Millisecond
}

// interrupter closes the channel when the loop is cancelled, in case
// the loop goroutine is blocked reading it.
type interrupter struct {
	c *Communicator
}

func (r *interrupter) Name() string {
	return "segbot-interrupter"
}

func (r *interrupter) Run(ctx context.Context) error {
	<-ctx.Done()
	r.c.interrupt()
	return ctx.Err()
}

// Package joystick attaches a game controller to the loop: the D-pad
// drives the four directional inputs and the sticks are sampled as
// analog axes.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/segbot/pkg/framework"
	"github.com/robotalks/segbot/pkg/input"
	"github.com/robotalks/segbot/pkg/joystick/device"
)

// DirectionHandler receives directional edges on the loop goroutine.
type DirectionHandler interface {
	HandleDirection(ctx context.Context, d input.Direction, pressed bool)
}

// DirectionHandlerFunc is the func form of DirectionHandler.
type DirectionHandlerFunc func(ctx context.Context, d input.Direction, pressed bool)

// HandleDirection implements DirectionHandler.
func (f DirectionHandlerFunc) HandleDirection(ctx context.Context, d input.Direction, pressed bool) {
	f(ctx, d, pressed)
}

// Controller detects and reads a joystick in the background and feeds
// its events into a Gamepad on the loop.
type Controller struct {
	DeviceIndex   int
	Verbose       bool
	RetryInterval time.Duration
	Handler       DirectionHandler

	// Open opens a device. nil uses device.Open, or device.DetectAndOpen
	// when DeviceIndex is negative.
	Open func(index int) (device.Device, error)

	gamepad *Gamepad
}

// NewController creates a Controller.
func NewController(handler DirectionHandler) *Controller {
	return &Controller{
		DeviceIndex:   defaultConfig.DeviceIndex,
		Verbose:       defaultConfig.Verbose,
		RetryInterval: time.Second,
		Handler:       handler,
		gamepad:       NewGamepad(defaultConfig.Mapping),
	}
}

// Gamepad returns the loop-owned state. It must only be read on the
// loop goroutine.
func (c *Controller) Gamepad() *Gamepad {
	return c.gamepad
}

// Name implements framework.Named.
func (c *Controller) Name() string {
	return "joystick"
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
	loop.AddProcessor(c)
}

func (c *Controller) open() (device.Device, error) {
	if c.Open != nil {
		return c.Open(c.DeviceIndex)
	}
	if c.DeviceIndex >= 0 {
		return device.Open(c.DeviceIndex)
	}
	return device.DetectAndOpen(0)
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	var (
		dev     device.Device
		eventCh chan device.Event
	)
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	deviceTimer := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deviceTimer:
			deviceTimer = nil
			js, err := c.open()
			switch {
			case err != nil:
				glog.V(1).Infof("open joystick %d: %v", c.DeviceIndex, err)
			case js == nil:
				glog.V(1).Info("no joystick detected")
			default:
				glog.Infof("joystick %d %q opened", js.Index(), js.Name())
				dev, eventCh = js, make(chan device.Event, 1)
				go c.pollJoystick(ctx, dev, eventCh)
				loopCtl.PostMessage(&attachMsg{name: js.Name()})
				loopCtl.TriggerNext()
			}
			if dev == nil {
				deviceTimer = time.After(c.RetryInterval)
			}
		case ev, ok := <-eventCh:
			if ok {
				loopCtl.PostMessage(&eventMsg{event: ev})
			} else {
				glog.Warningf("joystick %d lost", dev.Index())
				dev.Close()
				dev, eventCh = nil, nil
				deviceTimer = time.After(c.RetryInterval)
				loopCtl.PostMessage(&detachMsg{})
			}
			loopCtl.TriggerNext()
		}
	}
}

func (c *Controller) pollJoystick(ctx context.Context, dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.V(1).Infof("joystick read: %v", err)
			return
		}
		if c.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch evt := ev.(type) {
			case device.AxisEvent:
				glog.Infof(prefix+"axis %d: %d", evt.Index(), evt.Value())
			case device.ButtonEvent:
				glog.Infof(prefix+"button %d: %v", evt.Index(), evt.Pressed())
			}
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// ProcessMessage implements MessageProcessor.
func (c *Controller) ProcessMessage(mctx fx.MessageProcessingContext) {
	var edges []input.Edge
	switch msg := mctx.CurrentMessage().(type) {
	case *attachMsg:
		mctx.MessageTaken()
		c.gamepad.Attach(msg.name)
	case *eventMsg:
		mctx.MessageTaken()
		edges = c.gamepad.HandleEvent(msg.event)
	case *detachMsg:
		mctx.MessageTaken()
		edges = c.gamepad.Detach()
	default:
		return
	}
	if c.Handler == nil {
		return
	}
	for _, edge := range edges {
		c.Handler.HandleDirection(mctx.Context(), edge.Direction, edge.Pressed)
	}
}

type attachMsg struct {
	name string
}

type eventMsg struct {
	event device.Event
}

type detachMsg struct{}

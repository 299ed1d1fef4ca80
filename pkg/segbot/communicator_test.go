package segbot

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/segbot/pkg/framework"
	"github.com/robotalks/segbot/pkg/tty"
	"github.com/robotalks/segbot/pkg/tty/ttytest"
)

type event struct {
	name  string
	value interface{}
}

type recorder struct {
	events []event
}

func (r *recorder) AngleChanged(val int)          { r.add("angle", val) }
func (r *recorder) SpeedLeftChanged(val int)      { r.add("speedLeft", val) }
func (r *recorder) SpeedRightChanged(val int)     { r.add("speedRight", val) }
func (r *recorder) SensorDistanceChanged(val int) { r.add("sensorDistance", val) }
func (r *recorder) VoltageChanged(val int)        { r.add("voltage", val) }
func (r *recorder) ErrorStringChanged(s string)   { r.add("errorString", s) }

func (r *recorder) add(name string, val interface{}) {
	r.events = append(r.events, event{name, val})
}

func (r *recorder) take() []event {
	events := r.events
	r.events = nil
	return events
}

func ack(line string) string {
	return "ok\n"
}

type commTestEnv struct {
	t     *testing.T
	dir   string
	loop  *fx.Loop
	comm  *Communicator
	ports map[string]*ttytest.Port
	rec   *recorder
}

func newCommTestEnv(t *testing.T) *commTestEnv {
	env := &commTestEnv{
		t:     t,
		dir:   t.TempDir(),
		loop:  fx.NewLoop(),
		ports: make(map[string]*ttytest.Port),
		rec:   &recorder{},
	}
	conf := NewConfig()
	conf.Interval = int(time.Hour / time.Millisecond)
	env.comm = conf.NewCommunicator()
	env.comm.Opener = func(path string, _ tty.Options) (tty.Port, error) {
		if port := env.ports[path]; port != nil {
			return port, nil
		}
		return nil, os.ErrPermission
	}
	env.comm.Subscribe(env.rec)
	env.loop.Add(env.comm)
	env.comm.armTimer.SetInterval(time.Hour)
	t.Cleanup(func() { env.comm.Close() })
	return env
}

// device creates a device file backed by a scripted port.
func (e *commTestEnv) device(name string) (string, *ttytest.Port) {
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, nil, 0644))
	port := ttytest.New()
	port.Responder = ack
	e.ports[path] = port
	return path, port
}

func (e *commTestEnv) state() (bool, bool) {
	return e.comm.IsOpen(), e.comm.IsActive()
}

type axes struct {
	leftY, rightY float64
}

func (a *axes) IsConnected() bool   { return true }
func (a *axes) AxisLeftY() float64  { return a.leftY }
func (a *axes) AxisRightY() float64 { return a.rightY }

func TestNotInitialized(t *testing.T) {
	c := New(*NewConfig())
	require.Equal(t, ErrNotInitialized, c.SetDevice("/dev/rpmsg0"))
	require.NoError(t, c.Close())
	require.False(t, c.IsActive())
}

func TestStateMachine(t *testing.T) {
	env := newCommTestEnv(t)
	open, active := env.state()
	require.False(t, open)
	require.False(t, active)

	missing := filepath.Join(env.dir, "rpmsg9")
	err := env.comm.SetDevice(missing)
	require.True(t, errors.Is(err, tty.ErrDeviceMissing), "got %v", err)
	open, active = env.state()
	require.False(t, open)
	require.False(t, active)
	require.Contains(t, env.comm.ErrorString(), "device does not exist")
	require.Len(t, env.rec.take(), 1)

	// same error again doesn't notify
	env.comm.SetDevice(missing)
	require.Empty(t, env.rec.take())

	// open syscall failure
	noPort := filepath.Join(env.dir, "rpmsg8")
	require.NoError(t, os.WriteFile(noPort, nil, 0644))
	err = env.comm.SetDevice(noPort)
	require.True(t, errors.Is(err, tty.ErrOpenFailed), "got %v", err)
	require.True(t, strings.HasPrefix(env.comm.ErrorString(), "file failed to open"))
	require.Len(t, env.rec.take(), 1)

	path, _ := env.device("rpmsg0")
	require.NoError(t, env.comm.SetDevice(path))
	open, active = env.state()
	require.True(t, open)
	require.True(t, active)
	require.Equal(t, path, env.comm.Device())
	require.Empty(t, env.comm.ErrorString())
	require.Equal(t, []event{{"errorString", ""}}, env.rec.take())
	require.True(t, env.comm.updateTimer.IsActive())
	require.True(t, env.comm.armTimer.IsActive())

	require.NoError(t, env.comm.Close())
	open, active = env.state()
	require.False(t, open)
	require.False(t, active)
	require.False(t, env.comm.updateTimer.IsActive())
	require.False(t, env.comm.armTimer.IsActive())
	require.NoError(t, env.comm.Close())
}

func TestEmptyDeviceCloses(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")
	require.NoError(t, env.comm.SetDevice(path))
	require.NoError(t, env.comm.SetDevice(""))
	require.True(t, port.IsClosed())
	require.False(t, env.comm.IsOpen())
	require.Empty(t, env.comm.ErrorString())
}

func TestTelemetry(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")
	require.NoError(t, env.comm.SetDevice(path))
	env.rec.take()

	port.Queue("?angle:3\n", "?speedLeft:0\n", "?speedRight:0\n", "?distance:42\n", "?voltage:1180\n")
	env.comm.pollTelemetry(context.Background())
	require.Equal(t, []string{"?angle", "?speedLeft", "?speedRight", "?distance", "?voltage"}, port.Lines())
	require.Equal(t, []event{
		{"angle", 3},
		{"sensorDistance", 42},
		{"voltage", 1180},
	}, env.rec.take())
	require.Equal(t, 3, env.comm.Angle())
	require.Equal(t, 42, env.comm.SensorDistance())
	require.Equal(t, 1180, env.comm.Voltage())

	port.Queue("?angle:3\n", "?speedLeft:2\n", "?speedRight:0\n", "?distance:42\n", "?voltage:1180\n")
	env.comm.pollTelemetry(context.Background())
	require.Equal(t, []event{{"speedLeft", 2}}, env.rec.take())
	require.Equal(t, 2, env.comm.SpeedLeft())
	require.Zero(t, env.comm.SpeedRight())

	// garbage abandons the tick and leaves the communicator active
	port.Reset()
	port.Queue("garbage\n")
	env.comm.pollTelemetry(context.Background())
	require.Equal(t, []string{"?angle"}, port.Lines())
	require.Empty(t, env.rec.take())
	require.True(t, env.comm.IsActive())

	port.Queue("?angle:4\n", "?speedLeft:2\n", "?speedRight:0\n", "?distance:42\n", "?voltage:1180\n")
	env.comm.pollTelemetry(context.Background())
	require.Equal(t, []event{{"angle", 4}}, env.rec.take())
	require.Zero(t, port.DirtyWrites())
}

func TestTelemetryRecoversAfterTimeout(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")
	port.Responder = func(line string) string {
		if strings.HasPrefix(line, "?") {
			return line + ":7\n"
		}
		return "ok\n"
	}
	require.NoError(t, env.comm.SetDevice(path))
	env.rec.take()

	// the reply to ?angle shows up after the read timed out
	port.DelayNext(1)
	env.comm.pollTelemetry(context.Background())
	require.Empty(t, env.rec.take())
	require.True(t, env.comm.IsActive())

	env.comm.pollTelemetry(context.Background())
	require.Equal(t, []event{
		{"angle", 7},
		{"speedLeft", 7},
		{"speedRight", 7},
		{"sensorDistance", 7},
		{"voltage", 7},
	}, env.rec.take())
	require.Equal(t, 7, env.comm.Voltage())

	// same for a late motion ack
	port.DelayNext(1)
	env.comm.Forward(true)
	require.True(t, env.comm.IsActive())
	port.Responder = func(line string) string {
		if strings.HasPrefix(line, "?") {
			return line + ":8\n"
		}
		return "ok\n"
	}
	env.comm.pollTelemetry(context.Background())
	require.Len(t, env.rec.take(), 5)
	require.Equal(t, 8, env.comm.Angle())
	require.Zero(t, port.DirtyWrites())
}

func TestMotion(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")

	// inactive: dropped
	env.comm.Forward(true)
	require.NoError(t, env.comm.SetDevice(path))
	require.Empty(t, port.Lines())

	env.comm.Forward(true)
	env.comm.Forward(false)
	require.Equal(t, []string{"!move:8", "!stop"}, port.Lines())
	require.Zero(t, port.Unread())

	port.Reset()
	env.comm.Reverse(true)
	env.comm.TurnLeft(true)
	env.comm.TurnRight(true)
	env.comm.TurnLeft(false)
	env.comm.Stop()
	require.Equal(t, []string{"!move:-8", "!turnLeft:50", "!turnRight:50", "!stop", "!stop"}, port.Lines())

	// I/O errors are swallowed
	port.Reset()
	port.WriteErr = errors.New("EIO")
	env.comm.Forward(true)
	require.True(t, env.comm.IsActive())
	port.WriteErr = nil
	env.comm.Forward(true)
	require.Equal(t, []string{"!move:8"}, port.Lines())

	require.Error(t, env.comm.SetServo(2, 90))
	require.NoError(t, env.comm.SetServo(0, 30))
	require.Equal(t, "!servo:0:30", port.Lines()[1])
}

func TestArms(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")
	require.NoError(t, env.comm.SetDevice(path))

	// no source
	env.comm.updateArms(context.Background())
	require.Empty(t, port.Lines())

	env.comm.SetAxes(&axes{leftY: 0.5, rightY: -0.5})
	env.comm.updateArms(context.Background())
	require.Equal(t, []string{"!servo:1:105", "!servo:0:105"}, port.Lines())
	env.comm.updateArms(context.Background())
	require.Len(t, port.Lines(), 2)
	require.Equal(t, 105, env.comm.Servos().Left)
	require.Zero(t, port.Unread())
}

func TestDeviceSwap(t *testing.T) {
	env := newCommTestEnv(t)
	path0, port0 := env.device("rpmsg0")
	path1, port1 := env.device("rpmsg1")
	require.NoError(t, env.comm.SetDevice(path0))
	env.comm.Forward(true)
	require.NoError(t, env.comm.SetDevice(path1))
	require.True(t, port0.IsClosed())
	require.False(t, port1.IsClosed())

	env.comm.Forward(false)
	env.comm.pollTelemetry(context.Background())
	require.Equal(t, []string{"!move:8"}, port0.Lines())
	require.Equal(t, "!stop", port1.Lines()[0])
	require.Equal(t, path1, env.comm.Device())
}

func TestNoWritesAfterClose(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")
	require.NoError(t, env.comm.SetDevice(path))
	env.comm.SetAxes(&axes{leftY: 1})
	require.NoError(t, env.comm.Close())

	env.comm.Forward(true)
	env.comm.Stop()
	env.comm.pollTelemetry(context.Background())
	env.comm.updateArms(context.Background())
	env.loop.Post(&DirectionMsg{Pressed: true})
	env.loop.RunIteration(context.Background())
	require.Empty(t, port.Lines())
}

func TestUpdateInterval(t *testing.T) {
	env := newCommTestEnv(t)
	require.Equal(t, time.Millisecond, env.comm.SetUpdateInterval(0))
	require.Equal(t, time.Millisecond, env.comm.SetUpdateInterval(-5))
	require.Equal(t, 250*time.Millisecond, env.comm.SetUpdateInterval(250))
	require.Equal(t, 250*time.Millisecond, env.comm.updateTimer.Interval())
	require.Equal(t, 250*time.Millisecond, env.comm.UpdateInterval())
}

func TestMessages(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")
	ctx := context.Background()

	env.loop.Post(&SetDeviceMsg{Path: path})
	env.loop.Post(&DirectionMsg{Direction: 0, Pressed: true})
	env.loop.Post(&StopMsg{})
	env.loop.Post(&ServoMsg{Channel: 1, Position: 100})
	env.loop.Post(&SetUpdateIntervalMsg{Interval: 50})
	env.loop.RunIteration(ctx)
	require.Equal(t, []string{"!move:8", "!stop", "!servo:1:100"}, port.Lines())

	replyCh := make(chan Status, 1)
	env.loop.Post(&StatusQueryMsg{ReplyCh: replyCh})
	env.loop.RunIteration(ctx)
	st := <-replyCh
	require.True(t, st.Active)
	require.Equal(t, path, st.Device)
	require.Equal(t, 50*time.Millisecond, st.Interval)

	env.loop.Post(&CloseMsg{})
	env.loop.RunIteration(ctx)
	require.False(t, env.comm.IsOpen())
	require.True(t, port.IsClosed())
}

func TestStateObserver(t *testing.T) {
	env := newCommTestEnv(t)
	var states []State
	env.comm.Subscribe(&ObserverFuncs{OnState: func(st State) {
		states = append(states, st)
	}})
	path, _ := env.device("rpmsg0")
	require.NoError(t, env.comm.SetDevice(path))
	require.NoError(t, env.comm.Close())
	require.Equal(t, []State{
		{Device: path, Open: true, Active: true},
		{Device: path},
	}, states)
}

func TestInterrupter(t *testing.T) {
	env := newCommTestEnv(t)
	path, port := env.device("rpmsg0")
	require.NoError(t, env.comm.SetDevice(path))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&interrupter{c: env.comm}).Run(ctx)
	require.Equal(t, context.Canceled, err)
	require.True(t, port.IsClosed())
	require.False(t, env.comm.IsActive())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
segbot:
  device: /dev/rpmsg1
  interval: 20
  readTimeout: 200ms
`), 0644))

	conf := Config{Interval: 100}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&conf.Device, "device", conf.Device, "")
	fs.IntVar(&conf.Interval, "interval", conf.Interval, "")
	require.NoError(t, fs.Parse([]string{"-interval", "50"}))

	out := struct {
		Segbot *Config `yaml:"segbot"`
	}{&conf}
	require.NoError(t, LoadConfigFile(fs, path, &out))
	require.Equal(t, "/dev/rpmsg1", conf.Device)
	require.Equal(t, 50, conf.Interval)
	require.Equal(t, 200*time.Millisecond, conf.ReadTimeout)

	require.Error(t, LoadConfigFile(fs, filepath.Join(t.TempDir(), "none.yaml"), &out))
}

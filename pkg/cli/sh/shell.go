// Package sh provides an interactive console posting commands to the
// SegBot loop.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/segbot/pkg/framework"
	"github.com/robotalks/segbot/pkg/input"
	"github.com/robotalks/segbot/pkg/segbot"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// OnExit is called when the interactive shell is left.
	OnExit func()

	Shell *ishell.Shell
	Loop  fx.LoopControl
}

const shellKey = "$shell"

// StatusTimeout bounds waiting for the loop to answer a status query.
const StatusTimeout = time.Second

var (
	// flags

	interactive bool
	outputJSON  bool

	// commands
	commands = []*ishell.Cmd{
		&DeviceCmd,
		&CloseCmd,
		&IntervalCmd,
		&ForwardCmd,
		&ReverseCmd,
		&LeftCmd,
		&RightCmd,
		&StopCmd,
		&ServoCmd,
		&StatusCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&interactive, "i", interactive, "Run the interactive console.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print status in JSON.")
}

// Enabled indicates the console was requested on the command line.
func Enabled() bool {
	return interactive
}

// New creates a new shell.
func New(loop fx.LoopControl) *Shell {
	s := &Shell{
		Interactive: interactive,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Loop:        loop,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("segbot > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Post sends a message to the loop.
func (s *Shell) Post(msg fx.Message) {
	s.Loop.PostMessage(msg)
	s.Loop.TriggerNext()
}

// QueryStatus asks the loop for the Communicator status.
func (s *Shell) QueryStatus() (segbot.Status, error) {
	replyCh := make(chan segbot.Status, 1)
	s.Post(&segbot.StatusQueryMsg{ReplyCh: replyCh})
	select {
	case st := <-replyCh:
		return st, nil
	case <-time.After(StatusTimeout):
		return segbot.Status{}, context.DeadlineExceeded
	}
}

// Name implements framework.Named.
func (s *Shell) Name() string {
	return "shell"
}

// Run implements Runnable. Leaving the shell calls OnExit.
func (s *Shell) Run(ctx context.Context) error {
	if !s.Interactive {
		return nil
	}
	err := fx.RunWithContextCloser(ctx, closerFunc(s.Shell.Close), func() error {
		s.Shell.Run()
		return nil
	})
	if err == nil && s.OnExit != nil {
		s.OnExit()
	}
	return err
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

func directionCmd(name string, aliases []string, d input.Direction) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    "[release]",
		Func: func(c *ishell.Context) {
			pressed := true
			if len(c.Args) > 0 {
				if c.Args[0] != "release" {
					c.Err(fmt.Errorf("unknown argument %q", c.Args[0]))
					return
				}
				pressed = false
			}
			ShellFrom(c).Post(&segbot.DirectionMsg{Direction: d, Pressed: pressed})
		},
	}
}

func intArgs(args []string, count int) ([]int, error) {
	if len(args) != count {
		return nil, fmt.Errorf("expect %d arguments", count)
	}
	vals := make([]int, count)
	for n, arg := range args {
		val, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", arg)
		}
		vals[n] = val
	}
	return vals, nil
}

// FormatStatus renders a status for display.
func FormatStatus(st segbot.Status) string {
	device := st.Device
	if device == "" {
		device = "(none)"
	}
	s := fmt.Sprintf("device %s open=%v active=%v interval=%s\n", device, st.Open, st.Active, st.Interval)
	if st.Error != "" {
		s += fmt.Sprintf("error %s\n", st.Error)
	}
	t := st.Telemetry
	s += fmt.Sprintf("angle=%d speedLeft=%d speedRight=%d distance=%d voltage=%d\n",
		t.Angle, t.SpeedLeft, t.SpeedRight, t.Distance, t.Voltage)
	s += fmt.Sprintf("servos left=%d right=%d", st.Servos.Left, st.Servos.Right)
	return s
}

var (
	// DeviceCmd opens a device.
	DeviceCmd = ishell.Cmd{
		Name:    "device",
		Aliases: []string{"dev"},
		Help:    "PATH",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("expect device path"))
				return
			}
			ShellFrom(c).Post(&segbot.SetDeviceMsg{Path: c.Args[0]})
		},
	}

	// CloseCmd closes the device.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Post(&segbot.CloseMsg{})
		},
	}

	// IntervalCmd sets the telemetry interval.
	IntervalCmd = ishell.Cmd{
		Name: "interval",
		Help: "MS",
		Func: func(c *ishell.Context) {
			vals, err := intArgs(c.Args, 1)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Post(&segbot.SetUpdateIntervalMsg{Interval: vals[0]})
		},
	}

	// ForwardCmd presses or releases forward.
	ForwardCmd = directionCmd("forward", []string{"f"}, input.Forward)
	// ReverseCmd presses or releases reverse.
	ReverseCmd = directionCmd("reverse", []string{"b"}, input.Reverse)
	// LeftCmd presses or releases turn left.
	LeftCmd = directionCmd("left", []string{"l"}, input.Left)
	// RightCmd presses or releases turn right.
	RightCmd = directionCmd("right", []string{"r"}, input.Right)

	// StopCmd stops motion.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Post(&segbot.StopMsg{})
		},
	}

	// ServoCmd moves a servo.
	ServoCmd = ishell.Cmd{
		Name: "servo",
		Help: "CHANNEL POSITION",
		Func: func(c *ishell.Context) {
			vals, err := intArgs(c.Args, 2)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Post(&segbot.ServoMsg{Channel: vals[0], Position: vals[1]})
		},
	}

	// StatusCmd prints the status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			st, err := s.QueryStatus()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, err := json.Marshal(st)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Println(FormatStatus(st))
		},
	}
)

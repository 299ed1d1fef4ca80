package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/segbot/pkg/cli/sh"
	"github.com/robotalks/segbot/pkg/framework"
	"github.com/robotalks/segbot/pkg/joystick"
	"github.com/robotalks/segbot/pkg/mqtt"
	"github.com/robotalks/segbot/pkg/segbot"
	"github.com/robotalks/segbot/pkg/stream"
)

// fileConfig is the layout of the -config file.
type fileConfig struct {
	Segbot   *segbot.Config   `yaml:"segbot"`
	Joystick *joystick.Config `yaml:"joystick"`
	MQTT     *mqtt.Config     `yaml:"mqtt"`
	Stream   *stream.Config   `yaml:"stream"`
}

var configFile string

func init() {
	flag.StringVar(&configFile, "config", configFile, "YAML config file, flags given explicitly take precedence.")
	segbot.SetupFlags()
	joystick.SetupFlags()
	mqtt.SetupFlags()
	stream.SetupFlags()
	sh.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if configFile != "" {
		conf := &fileConfig{
			Segbot:   segbot.Default(),
			Joystick: joystick.Default(),
			MQTT:     mqtt.Default(),
			Stream:   stream.Default(),
		}
		if err := segbot.LoadConfigFile(flag.CommandLine, configFile, conf); err != nil {
			glog.Fatal(err)
		}
	}

	loop := framework.NewLoop()
	segbotConf := segbot.NewConfig()
	comm := segbotConf.NewCommunicator()
	ctl := joystick.NewConfig().NewController(comm)
	comm.SetAxes(ctl.Gamepad())
	loop.Add(comm, ctl)

	if mqttConf := mqtt.NewConfig(); mqttConf.URL != "" {
		pub, err := mqttConf.NewPublisher()
		if err != nil {
			glog.Fatal(err)
		}
		comm.Subscribe(pub)
		loop.AddRunnable(pub)
	}

	if streamConf := stream.NewConfig(); streamConf.Listen != "" {
		hub := stream.NewHub()
		comm.Subscribe(hub)
		loop.AddRunnable(streamConf.NewServer(hub))
	}

	runner, cancel := framework.NewRunner().HandleSignals()
	if sh.Enabled() {
		shell := sh.New(loop)
		shell.OnExit = cancel
		loop.AddRunnable(shell)
	}

	if segbotConf.Device != "" {
		loop.Post(&segbot.SetDeviceMsg{Path: segbotConf.Device})
	}

	runner.Go(loop)
	if err := runner.Wait(); err != nil {
		glog.Fatal(err)
	}
	comm.Close()
}

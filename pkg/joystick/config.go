package joystick

import (
	"flag"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int     `yaml:"index"`
	Verbose     bool    `yaml:"verbose"`
	Mapping     Mapping `yaml:"mapping"`
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Mapping:     DefaultMapping,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "js", defaultConfig.DeviceIndex, "Joystick index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "js-verbose", defaultConfig.Verbose, "Log joystick events.")
	flag.IntVar(&defaultConfig.Mapping.LeftY, "js-left-y", defaultConfig.Mapping.LeftY, "Axis driving the left arm.")
	flag.IntVar(&defaultConfig.Mapping.RightY, "js-right-y", defaultConfig.Mapping.RightY, "Axis driving the right arm.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController(handler DirectionHandler) *Controller {
	ctl := NewController(handler)
	ctl.DeviceIndex = c.DeviceIndex
	ctl.Verbose = c.Verbose
	ctl.gamepad.Mapping = c.Mapping
	return ctl
}

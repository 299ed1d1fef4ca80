package mqtt

import (
	"flag"
	"os"

	"github.com/denisbrodbeck/machineid"
)

// Config defines the configurations for publishing.
type Config struct {
	// URL of the broker, empty disables publishing.
	URL string `yaml:"url"`
	// RobotID names this robot in topics, empty for the machine id.
	RobotID string `yaml:"robotId"`
}

var defaultConfig Config

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "mqtt", defaultConfig.URL, "MQTT broker URL to publish telemetry, e.g. mqtt://localhost:1883/robo/.")
	flag.StringVar(&defaultConfig.RobotID, "robot-id", defaultConfig.RobotID, "Robot ID in topics, default is the machine id.")
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

// MachineID identifies the machine, falling back to the hostname.
func MachineID() string {
	if id, err := machineid.ProtectedID("segbot"); err == nil {
		return id[:16]
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "segbot"
}

// NewPublisher creates a Publisher using the config.
func (c *Config) NewPublisher() (*Publisher, error) {
	q, err := NewQueueFromURL(c.URL)
	if err != nil {
		return nil, err
	}
	id := c.RobotID
	if id == "" {
		id = MachineID()
	}
	return NewPublisher(q, id), nil
}

package segbot

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/segbot/pkg/tty"
)

// Config defines the configurations for the Communicator.
type Config struct {
	Device      string        `yaml:"device"`
	Interval    int           `yaml:"interval"`
	ReadTimeout time.Duration `yaml:"readTimeout"`
	BaudRate    int           `yaml:"baud"`
}

var defaultConfig = Config{
	Interval: 100,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "tty of the co-processor, e.g. /dev/rpmsg0.")
	flag.IntVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Telemetry update interval in milliseconds.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Reply timeout, 0 to block (200ms recommended).")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Configure the tty as a UART at this baud rate, 0 keeps the current speed.")
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

// TTYOptions returns the options to open the device.
func (c Config) TTYOptions() tty.Options {
	return tty.Options{BaudRate: c.BaudRate, ReadTimeout: c.ReadTimeout}
}

// NewCommunicator creates a Communicator using the config.
func (c *Config) NewCommunicator() *Communicator {
	return New(*c)
}

// LoadConfigFile decodes the YAML file at path into out. Flags already
// set explicitly on fs keep their values.
func LoadConfigFile(fs *flag.FlagSet, path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for name, val := range explicit {
		if err := fs.Set(name, val); err != nil {
			return err
		}
	}
	return nil
}

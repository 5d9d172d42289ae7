// Package config loads the host tools' settings from flags, the
// environment and an optional gometer.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gometer/core"
	"gometer/host/serial"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// ConfigEnv names a config file to read instead of searching for one.
	ConfigEnv = "GOMETER_CONFIG"

	DefaultDevice       = "/dev/ttyUSB0"
	DefaultSamplePeriod = 5 * time.Millisecond
	DefaultSelector     = "v"
)

type Config struct {
	// serial
	Device      string        `mapstructure:"device"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// firmware
	Averaging    int `mapstructure:"averaging"`
	ReportBuffer int `mapstructure:"report_buffer"`

	// simulator
	SamplePeriod time.Duration `mapstructure:"sample_period"`
	Volts        float64       `mapstructure:"volts"`
	Noise        float64       `mapstructure:"noise"`
	Selector     string        `mapstructure:"selector"`
	Output       string        `mapstructure:"output"`

	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`
}

// Load parses args (without the program name) over a config file over
// the defaults. The file is $GOMETER_CONFIG, else --config, else
// gometer.toml in the working directory or /etc/gometer.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("gometer", pflag.ContinueOnError)
	configFile := fs.String("config", "", "Config file")
	fs.String("device", DefaultDevice, "Serial device the meter reports on")
	fs.Int("baud", serial.DefaultBaud, "Baud rate")
	fs.Duration("read-timeout", 100*time.Millisecond, "Serial read timeout")
	fs.Int("averaging", core.DefaultAveraging, "Samples per volts DC reading")
	fs.Int("report-buffer", core.DefaultReportBuffer, "Report FIFO size in bytes")
	fs.Duration("sample-period", DefaultSamplePeriod, "Simulated conversion period")
	fs.Float64("volts", 0, "Simulated input voltage")
	fs.Float64("noise", 0, "Simulated input noise, volts RMS")
	fs.String("selector", DefaultSelector, "Simulated selector position")
	fs.String("output", "", "Serial device to copy the simulated report stream to")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("gometer")
	v.AutomaticEnv()

	// flag names use dashes, keys use underscores
	bind := map[string]string{
		"device":        "device",
		"baud":          "baud",
		"read_timeout":  "read-timeout",
		"averaging":     "averaging",
		"report_buffer": "report-buffer",
		"sample_period": "sample-period",
		"volts":         "volts",
		"noise":         "noise",
		"selector":      "selector",
		"output":        "output",
		"debug":         "debug",
		"verbose":       "verbose",
	}
	for key, name := range bind {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	path := os.Getenv(ConfigEnv)
	if path == "" {
		path = *configFile
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gometer")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/gometer")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Set log level based on config
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	return cfg, nil
}

// Validate rejects settings the firmware or the simulator cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Averaging < 1:
		return fmt.Errorf("%w: averaging must be at least 1, got %d", ErrInvalidConfig, c.Averaging)
	case c.ReportBuffer < 16:
		return fmt.Errorf("%w: report_buffer must be at least 16, got %d", ErrInvalidConfig, c.ReportBuffer)
	case c.SamplePeriod <= 0:
		return fmt.Errorf("%w: sample_period must be positive", ErrInvalidConfig)
	case c.Baud <= 0:
		return fmt.Errorf("%w: baud must be positive", ErrInvalidConfig)
	}
	if _, err := c.SelectorButton(); err != nil {
		return err
	}
	return nil
}

// SelectorButton returns the simulated selector position.
func (c *Config) SelectorButton() (core.Button, error) {
	b, ok := core.ParseButton(c.Selector)
	if !ok || b < core.SelectorLowZ {
		return core.ButtonNone, fmt.Errorf("%w: unknown selector position %q", ErrInvalidConfig, c.Selector)
	}
	return b, nil
}

// Firmware returns the firmware settings.
func (c *Config) Firmware() core.Config {
	return core.Config{
		Averaging:    c.Averaging,
		ReportBuffer: c.ReportBuffer,
		Debug:        c.Debug,
	}
}

// Serial returns the port settings for device.
func (c *Config) Serial(device string) *serial.Config {
	return &serial.Config{
		Device:      device,
		Baud:        c.Baud,
		ReadTimeout: int(c.ReadTimeout / time.Millisecond),
	}
}

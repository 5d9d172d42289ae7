// Package serial opens the byte stream a meter reports readings on.
package serial

import (
	"errors"
	"io"
)

// DefaultBaud is the report UART's rate. USB CDC bridges ignore it.
const DefaultBaud = 115200

// ErrNoDevice is returned by Open when no device path is configured.
var ErrNoDevice = errors.New("serial: no device configured")

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Pipes and fakes (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration for a meter's report port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

// Validate fills in a zero baud rate and rejects a missing device.
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	return nil
}

//go:build rp2040

package main

import (
	"errors"
	"machine"

	"gometer/core"
)

var errBadPin = errors.New("no such GPIO pin")

// RPGPIODriver implements core.GPIODriver on the RP2040's GPIO0-GPIO29.
type RPGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	// Already configured, this is OK
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	if pin > 29 {
		return errBadPin
	}
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: mode})
	d.configuredPins[pin] = machinePin
	return nil
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

// ConfigureInputPullUp configures a pin as an input with pull-up resistor
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

// SetPin drives a configured output
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, ok := d.configuredPins[pin]
	if !ok {
		return errBadPin
	}
	machinePin.Set(value)
	return nil
}

// ReadPin reads a configured pin; unconfigured pins read low
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	machinePin, ok := d.configuredPins[pin]
	if !ok {
		return false
	}
	return machinePin.Get()
}

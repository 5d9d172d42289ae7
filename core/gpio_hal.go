package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that the board glue uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// ReadPin reads the current pin state
	ReadPin(pin GPIOPin) bool
}

// PowerPins drives the measurement supplies and the chip reset line.
// It implements PowerControl.
type PowerPins struct {
	gpio    GPIODriver
	digital GPIOPin // digital supply for the measurement chip
	analog  GPIOPin // 4V analog supply
	reset   GPIOPin // chip reset, active low
}

// NewPowerPins configures the supply and reset pins as outputs, all off.
func NewPowerPins(gpio GPIODriver, digital, analog, reset GPIOPin) (*PowerPins, error) {
	for _, pin := range []GPIOPin{digital, analog, reset} {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, err
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return nil, err
		}
	}
	return &PowerPins{gpio: gpio, digital: digital, analog: analog, reset: reset}, nil
}

// SetRails switches the supplies. The digital supply comes up first and
// goes down last.
func (p *PowerPins) SetRails(on bool) {
	if on {
		_ = p.gpio.SetPin(p.digital, true)
		_ = p.gpio.SetPin(p.analog, true)
		return
	}
	_ = p.gpio.SetPin(p.analog, false)
	_ = p.gpio.SetPin(p.digital, false)
}

// ResetChip pulses the chip reset line.
func (p *PowerPins) ResetChip() {
	_ = p.gpio.SetPin(p.reset, false)
	_ = p.gpio.SetPin(p.reset, true)
}

// PowerDownChip holds the chip in reset.
func (p *PowerPins) PowerDownChip() {
	_ = p.gpio.SetPin(p.reset, false)
}

// IRQPin reads the chip's interrupt output. It implements IRQLine.
type IRQPin struct {
	gpio      GPIODriver
	pin       GPIOPin
	activeLow bool
}

// NewIRQPin configures pin as the chip interrupt input.
func NewIRQPin(gpio GPIODriver, pin GPIOPin, activeLow bool) (*IRQPin, error) {
	if err := gpio.ConfigureInputPullUp(pin); err != nil {
		return nil, err
	}
	return &IRQPin{gpio: gpio, pin: pin, activeLow: activeLow}, nil
}

// Asserted reports the physical level of the line.
func (p *IRQPin) Asserted() bool {
	return p.gpio.ReadPin(p.pin) != p.activeLow
}

// ButtonPins maps every button to an active-low input pin.
// It implements ButtonInput.
type ButtonPins struct {
	gpio GPIODriver
	pins [NumButtons]GPIOPin
}

// NewButtonPins configures the key, jack and selector inputs with pull-ups.
// pins is indexed by Button-1.
func NewButtonPins(gpio GPIODriver, pins [NumButtons]GPIOPin) (*ButtonPins, error) {
	for _, pin := range pins {
		if err := gpio.ConfigureInputPullUp(pin); err != nil {
			return nil, err
		}
	}
	return &ButtonPins{gpio: gpio, pins: pins}, nil
}

// Pressed reports whether the button's contact is closed.
func (b *ButtonPins) Pressed(btn Button) bool {
	if btn == ButtonNone || int(btn) > NumButtons {
		return false
	}
	return !b.gpio.ReadPin(b.pins[btn-1])
}

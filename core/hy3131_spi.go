package core

import "tinygo.org/x/drivers"

// SPITransport talks to the HY3131 over a byte-oriented serial bus.
// A transaction is chip select low, one frame byte holding the start
// register and the direction bit, the data bytes, then chip select high.
//
// The chip starts driving its data a clock after the frame byte ends, so the
// bus samples MISO after each falling clock edge: SPI mode 1, most
// significant bit first. SoftSPI and the board's PIO bus both do this.
type SPITransport struct {
	bus  drivers.SPI
	gpio GPIODriver
	cs   GPIOPin

	scratch [HYConfigLen]byte
}

// NewSPITransport configures cs as an output and deasserts it.
func NewSPITransport(bus drivers.SPI, gpio GPIODriver, cs GPIOPin) (*SPITransport, error) {
	if err := gpio.ConfigureOutput(cs); err != nil {
		return nil, err
	}
	if err := gpio.SetPin(cs, true); err != nil {
		return nil, err
	}
	return &SPITransport{bus: bus, gpio: gpio, cs: cs}, nil
}

func hyFrame(start uint8, read bool) byte {
	b := start << 1
	if read {
		b |= 1
	}
	return b
}

// ReadRegisters implements RegisterTransport.
func (t *SPITransport) ReadRegisters(start uint8, buf []byte) error {
	if len(buf) > len(t.scratch) {
		return ErrShortRegister
	}
	_ = t.gpio.SetPin(t.cs, false)
	defer t.gpio.SetPin(t.cs, true)

	if _, err := t.bus.Transfer(hyFrame(start, true)); err != nil {
		return err
	}
	// shift out zeros while the chip talks
	zeros := t.scratch[:len(buf)]
	for i := range zeros {
		zeros[i] = 0
	}
	return t.bus.Tx(zeros, buf)
}

// WriteRegisters implements RegisterTransport.
func (t *SPITransport) WriteRegisters(start uint8, data []byte) error {
	_ = t.gpio.SetPin(t.cs, false)
	defer t.gpio.SetPin(t.cs, true)

	if _, err := t.bus.Transfer(hyFrame(start, false)); err != nil {
		return err
	}
	return t.bus.Tx(data, nil)
}

package core

import "errors"

// ErrTransferLength is returned by Tx when both buffers are given and their
// lengths differ.
var ErrTransferLength = errors.New("spi: read and write buffers differ in length")

// SoftSPI is a bit-banged SPI master for the HY3131. Each bit is data out,
// a full clock pulse, then a sample of MISO after the falling edge. The chip
// needs a clock of turnaround before its first data bit, and sampling after
// the fall is what absorbs it. The clock idles low; the bus is mode 1.
// It implements drivers.SPI.
type SoftSPI struct {
	gpio GPIODriver
	sck  GPIOPin
	mosi GPIOPin
	miso GPIOPin
}

// NewSoftSPI configures the clock and data out pins low and MISO as an input.
func NewSoftSPI(gpio GPIODriver, sck, mosi, miso GPIOPin) (*SoftSPI, error) {
	for _, pin := range []GPIOPin{sck, mosi} {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, err
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return nil, err
		}
	}
	if err := gpio.ConfigureInputPullUp(miso); err != nil {
		return nil, err
	}
	return &SoftSPI{gpio: gpio, sck: sck, mosi: mosi, miso: miso}, nil
}

// Transfer clocks one byte out, most significant bit first, and returns the
// byte clocked in.
func (s *SoftSPI) Transfer(b byte) (byte, error) {
	var in byte
	for bit := 0; bit < 8; bit++ {
		if err := s.gpio.SetPin(s.mosi, b&0x80 != 0); err != nil {
			return 0, err
		}
		b <<= 1
		_ = s.gpio.SetPin(s.sck, true)
		_ = s.gpio.SetPin(s.sck, false)
		in <<= 1
		if s.gpio.ReadPin(s.miso) {
			in |= 1
		}
	}
	return in, nil
}

// Tx implements drivers.SPI.
func (s *SoftSPI) Tx(w, r []byte) error {
	return TxBytes(s.Transfer, w, r)
}

// TxBytes runs a drivers.SPI Tx one byte at a time. Either buffer may be
// nil; zeros are sent for a read-only transfer.
func TxBytes(transfer func(byte) (byte, error), w, r []byte) error {
	if w != nil && r != nil && len(w) != len(r) {
		return ErrTransferLength
	}
	n := len(w)
	if w == nil {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in, err := transfer(out)
		if err != nil {
			return err
		}
		if r != nil {
			r[i] = in
		}
	}
	return nil
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSPI records every byte clocked out and answers reads from a canned
// reply.
type fakeSPI struct {
	gpio  *fakeGPIO
	cs    GPIOPin
	sent  []byte
	reply []byte
	csLow []bool
}

func (s *fakeSPI) Tx(w, r []byte) error {
	s.csLow = append(s.csLow, !s.gpio.levels[s.cs])
	s.sent = append(s.sent, w...)
	if r != nil {
		copy(r, s.reply)
	}
	return nil
}

func (s *fakeSPI) Transfer(b byte) (byte, error) {
	s.csLow = append(s.csLow, !s.gpio.levels[s.cs])
	s.sent = append(s.sent, b)
	return 0, nil
}

func TestSPITransportRead(t *testing.T) {
	g := newFakeGPIO()
	bus := &fakeSPI{gpio: g, cs: 9, reply: []byte{0x58, 0x02, 0x00}}
	tr, err := NewSPITransport(bus, g, 9)
	require.NoError(t, err)
	assert.True(t, g.levels[9], "chip select idles high")

	buf := make([]byte, 3)
	require.NoError(t, tr.ReadRegisters(HYRegAD1, buf))

	assert.Equal(t, []byte{0x01, 0, 0, 0}, bus.sent)
	assert.Equal(t, []byte{0x58, 0x02, 0x00}, buf)
	assert.Equal(t, []bool{true, true}, bus.csLow)
	assert.True(t, g.levels[9])
}

func TestSPITransportWrite(t *testing.T) {
	g := newFakeGPIO()
	bus := &fakeSPI{gpio: g, cs: 9}
	tr, err := NewSPITransport(bus, g, 9)
	require.NoError(t, err)

	require.NoError(t, tr.WriteRegisters(HYRegINTE, []byte{HYIntAD1}))
	assert.Equal(t, []byte{HYRegINTE << 1, HYIntAD1}, bus.sent)
	assert.True(t, g.levels[9])
}

func TestHY3131OverChipTransport(t *testing.T) {
	g := newFakeGPIO()
	bus := &fakeSPI{gpio: g, cs: 9, reply: []byte{0x00, 0x00, 0x80}}
	tr, err := NewSPITransport(bus, g, 9)
	require.NoError(t, err)

	hy := NewHY3131(tr, nil, NewScheduler())
	v, err := hy.ReadInt24(HYRegAD1)
	require.NoError(t, err)
	assert.Equal(t, int32(-1<<23), v)

	_, err = hy.ReadInt24(0x7F)
	assert.ErrorIs(t, err, ErrShortRegister)
	assert.ErrorIs(t, NewHY3131(nil, nil, NewScheduler()).WriteInterruptEnable(0), ErrNoTransport)
}

// bitChip models the HY3131 serial port one pin at a time. It latches MOSI
// on each rising clock edge. After a read frame it puts the next data bit on
// MISO at each rising edge, starting with the edge after the frame byte.
type bitChip struct {
	cs, sck, mosi, miso GPIOPin

	regs   [0x80]byte
	levels map[GPIOPin]bool
	rises  int

	selected bool
	phase    int // 0 frame byte, 1 write data, 2 read data
	shift    byte
	nbits    int
	addr     uint8
	out      byte
}

func newBitChip() *bitChip {
	return &bitChip{cs: 5, sck: 2, mosi: 3, miso: 4, levels: map[GPIOPin]bool{}}
}

func (c *bitChip) ConfigureOutput(GPIOPin) error      { return nil }
func (c *bitChip) ConfigureInputPullUp(GPIOPin) error { return nil }
func (c *bitChip) ReadPin(pin GPIOPin) bool           { return c.levels[pin] }

func (c *bitChip) SetPin(pin GPIOPin, value bool) error {
	was := c.levels[pin]
	c.levels[pin] = value
	switch {
	case pin == c.cs:
		c.selected = !value
		c.phase, c.nbits, c.shift = 0, 0, 0
	case pin == c.sck && value && !was && c.selected:
		c.rise()
	}
	return nil
}

func (c *bitChip) rise() {
	c.rises++
	if c.phase == 2 {
		c.levels[c.miso] = c.out&0x80 != 0
		c.out <<= 1
		if c.nbits++; c.nbits == 8 {
			c.nbits = 0
			c.addr++
			c.out = c.regs[c.addr&0x7F]
		}
		return
	}

	c.shift <<= 1
	if c.levels[c.mosi] {
		c.shift |= 1
	}
	if c.nbits++; c.nbits < 8 {
		return
	}
	c.nbits = 0
	if c.phase == 1 {
		c.regs[c.addr&0x7F] = c.shift
		c.addr++
		return
	}
	c.addr = c.shift >> 1
	if c.shift&1 != 0 {
		c.phase = 2
		c.out = c.regs[c.addr&0x7F]
	} else {
		c.phase = 1
	}
}

func newBitBus(t *testing.T) (*bitChip, *SoftSPI, *SPITransport) {
	t.Helper()
	c := newBitChip()
	bus, err := NewSoftSPI(c, c.sck, c.mosi, c.miso)
	require.NoError(t, err)
	tr, err := NewSPITransport(bus, c, c.cs)
	require.NoError(t, err)
	return c, bus, tr
}

func TestSoftSPIReadsAfterTurnaround(t *testing.T) {
	c, _, tr := newBitBus(t)
	copy(c.regs[HYRegAD1:], []byte{0x81, 0x02, 0xC3})

	buf := make([]byte, 3)
	require.NoError(t, tr.ReadRegisters(HYRegAD1, buf))
	assert.Equal(t, []byte{0x81, 0x02, 0xC3}, buf)
	assert.Equal(t, 32, c.rises)
	assert.True(t, c.levels[c.cs])
}

func TestBitChipShiftsRisingEdgeSamples(t *testing.T) {
	c, bus, _ := newBitBus(t)
	c.regs[HYRegAD1] = 0x81

	// sampling before the rising edge, as mode 0 does, sees the
	// turnaround clock as the first data bit
	_ = c.SetPin(c.cs, false)
	_, err := bus.Transfer(hyFrame(HYRegAD1, true))
	require.NoError(t, err)
	var got byte
	for bit := 0; bit < 8; bit++ {
		got <<= 1
		if c.ReadPin(c.miso) {
			got |= 1
		}
		_ = c.SetPin(c.sck, true)
		_ = c.SetPin(c.sck, false)
	}
	_ = c.SetPin(c.cs, true)
	assert.Equal(t, byte(0x40), got)
}

func TestSoftSPIWrites(t *testing.T) {
	c, _, tr := newBitBus(t)

	require.NoError(t, tr.WriteRegisters(HYRegConfig, []byte{0x11, 0xA5, 0x80}))
	assert.Equal(t, []byte{0x11, 0xA5, 0x80}, c.regs[HYRegConfig:HYRegConfig+3])

	require.NoError(t, tr.WriteRegisters(HYRegINTE, []byte{HYIntAD1}))
	assert.Equal(t, HYIntAD1, c.regs[HYRegINTE])
}

func TestTxRejectsMismatchedBuffers(t *testing.T) {
	c, bus, _ := newBitBus(t)

	err := bus.Tx(make([]byte, 3), make([]byte, 2))
	assert.ErrorIs(t, err, ErrTransferLength)
	assert.Zero(t, c.rises)

	calls := 0
	transfer := func(b byte) (byte, error) {
		calls++
		return ^b, nil
	}
	r := make([]byte, 2)
	require.NoError(t, TxBytes(transfer, nil, r))
	assert.Equal(t, []byte{0xFF, 0xFF}, r)
	require.NoError(t, TxBytes(transfer, []byte{1, 2, 3}, nil))
	assert.Equal(t, 5, calls)
	assert.ErrorIs(t, TxBytes(transfer, []byte{1}, make([]byte, 4)), ErrTransferLength)
}

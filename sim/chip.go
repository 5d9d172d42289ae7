// Package sim models the meter's hardware on the host: the HY3131 register
// file and its interrupt line, the power rails, the buttons and the display.
package sim

import (
	"errors"
	"sync"

	"gometer/core"
)

// ErrChipOff is returned for register access while the chip is unpowered
// or held in reset.
var ErrChipOff = errors.New("sim: chip is not powered")

// Chip is a simulated HY3131. It implements core.RegisterTransport and
// core.IRQLine. The line is asserted while any enabled flag is set in INTF;
// reading INTF clears it. OnEdge is called on each rising edge, the way
// the EXTI interrupt fires.
type Chip struct {
	mu      sync.Mutex
	regs    [0x80]byte
	powered bool
	onEdge  func()

	reads  uint64
	writes uint64
}

// NewChip creates an unpowered chip.
func NewChip() *Chip {
	return &Chip{}
}

// OnEdge sets the rising edge callback. It runs with no chip lock held.
func (c *Chip) OnEdge(f func()) {
	c.mu.Lock()
	c.onEdge = f
	c.mu.Unlock()
}

// SetPowered powers the chip up or down. Registers reset to zero on
// power-up.
func (c *Chip) SetPowered(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on && !c.powered {
		c.regs = [0x80]byte{}
	}
	c.powered = on
}

// Reset zeroes the register file.
func (c *Chip) Reset() {
	c.mu.Lock()
	c.regs = [0x80]byte{}
	c.mu.Unlock()
}

// Powered reports whether the chip is up.
func (c *Chip) Powered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powered
}

func (c *Chip) asserted() bool {
	return c.regs[core.HYRegINTF]&c.regs[core.HYRegINTE]&^core.HYIntBORF != 0
}

// Asserted implements core.IRQLine.
func (c *Chip) Asserted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powered && c.asserted()
}

// ReadRegisters implements core.RegisterTransport.
func (c *Chip) ReadRegisters(start uint8, buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.powered {
		return ErrChipOff
	}
	if int(start)+len(buf) > len(c.regs) {
		return core.ErrShortRegister
	}
	c.reads++
	copy(buf, c.regs[start:])
	if start <= core.HYRegINTF && int(start)+len(buf) > int(core.HYRegINTF) {
		c.regs[core.HYRegINTF] = 0
	}
	return nil
}

// WriteRegisters implements core.RegisterTransport. Writing INTE can raise
// the line if flags are already pending.
func (c *Chip) WriteRegisters(start uint8, data []byte) error {
	c.mu.Lock()
	if !c.powered {
		c.mu.Unlock()
		return ErrChipOff
	}
	if int(start)+len(data) > len(c.regs) {
		c.mu.Unlock()
		return core.ErrShortRegister
	}
	was := c.asserted()
	c.writes++
	copy(c.regs[start:], data)
	edge := !was && c.asserted()
	f := c.onEdge
	c.mu.Unlock()

	if edge && f != nil {
		f()
	}
	return nil
}

// Convert finishes a conversion: it stores raw in the source's data
// register and raises the source's flag.
func (c *Chip) Convert(source uint8, raw int64) {
	c.mu.Lock()
	if !c.powered {
		c.mu.Unlock()
		return
	}
	reg, size := dataRegister(source)
	u := uint64(raw)
	for i := 0; i < size; i++ {
		c.regs[reg+uint8(i)] = byte(u >> (8 * i))
	}
	was := c.asserted()
	c.regs[core.HYRegINTF] |= source
	edge := !was && c.asserted()
	f := c.onEdge
	c.mu.Unlock()

	if edge && f != nil {
		f()
	}
}

// BrownOut sets BORF, which is reported in INTF but never raises the line.
func (c *Chip) BrownOut() {
	c.mu.Lock()
	c.regs[core.HYRegINTF] |= core.HYIntBORF
	c.mu.Unlock()
}

func dataRegister(source uint8) (uint8, int) {
	switch source {
	case core.HYIntAD2:
		return core.HYRegAD2, 3
	case core.HYIntLPF:
		return core.HYRegLPF, 3
	case core.HYIntRMS:
		return core.HYRegRMS, 5
	case core.HYIntCT:
		return core.HYRegCTA, 3
	default:
		return core.HYRegAD1, 3
	}
}

// Register returns one register's value without side effects.
func (c *Chip) Register(r uint8) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[r&0x7F]
}

// Config returns the measurement profile last written at 0x20.
func (c *Chip) Config() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, core.HYConfigLen)
	copy(out, c.regs[core.HYRegConfig:])
	return out
}

// Stats returns the number of register reads and writes.
func (c *Chip) Stats() (reads, writes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads, c.writes
}

package core

import "errors"

// HY3131 register map. Multi-byte registers are little endian; data
// registers are two's complement.
const (
	HYRegAD1    uint8 = 0x00 // last AD1 sample, 3 bytes
	HYRegAD2    uint8 = 0x03 // last AD2/AD3 sample, 3 bytes
	HYRegLPF    uint8 = 0x06 // low-pass filter output, 3 bytes
	HYRegRMS    uint8 = 0x09 // RMS computation, 5 bytes
	HYRegPKHMin uint8 = 0x0E // peak hold minimum, 3 bytes
	HYRegPKHMax uint8 = 0x11 // peak hold maximum, 3 bytes
	HYRegCTSTA  uint8 = 0x14 // frequency counter status
	HYRegCTC    uint8 = 0x15 // 3 bytes
	HYRegCTB    uint8 = 0x18 // 3 bytes
	HYRegCTA    uint8 = 0x1B // 3 bytes
	HYRegINTF   uint8 = 0x1E // interrupt flags, cleared by reading
	HYRegINTE   uint8 = 0x1F // interrupt enable
	HYRegConfig uint8 = 0x20 // start of the 20 byte measurement profile

	HYConfigLen = 20
)

// CTSTA bits
const HYCTSTAOverflowB uint8 = 0x01

// Interrupt sources, enabled in INTE and reported in INTF.
const (
	// HYIntBORF reports a brown-out in INTF. It never raises the IRQ line.
	HYIntBORF uint8 = 0x80

	HYIntRMS uint8 = 0x10
	HYIntLPF uint8 = 0x08
	HYIntAD1 uint8 = 0x04
	HYIntAD2 uint8 = 0x02
	HYIntCT  uint8 = 0x01
)

var (
	ErrShortRegister = errors.New("hy3131: register access out of range")
	ErrNoTransport   = errors.New("hy3131: no register transport")
)

// HY3131 wraps the measurement chip: its register transport, its interrupt
// line and the job that line is routed to.
type HY3131 struct {
	bus   RegisterTransport
	line  IRQLine
	sched *Scheduler
	trace *TraceRing

	errors uint32
}

// NewHY3131 creates the chip wrapper. The acquisition job stays disabled
// until EnableIRQ.
func NewHY3131(bus RegisterTransport, line IRQLine, sched *Scheduler) *HY3131 {
	return &HY3131{bus: bus, line: line, sched: sched}
}

// SetTrace records transport errors and IRQ resyncs in t.
func (h *HY3131) SetTrace(t *TraceRing) {
	h.trace = t
}

// IRQEdge is the interrupt entry for the chip's line. It may be called from
// an ISR or any goroutine.
func (h *HY3131) IRQEdge() {
	h.sched.Interrupt(JobAcquisition)
}

// DisableIRQ stops chip interrupts from being processed and returns the
// previous state for EnableIRQ.
func (h *HY3131) DisableIRQ() bool {
	return h.sched.Disable(JobAcquisition)
}

// EnableIRQ turns chip interrupt processing back on if enable is true; if
// enable is false the state is left alone.
//
// Any edge latched while the job was off is dropped, since it may predate
// the register writes just made. The line is edge signalled, so if the chip
// is already asserting it there will be no new edge: the job is scheduled
// by hand instead.
func (h *HY3131) EnableIRQ(enable bool) {
	if !enable {
		return
	}
	state := h.sched.DisableInterrupts()
	h.sched.Enable(JobAcquisition)
	if h.line != nil && h.line.Asserted() {
		if h.trace != nil {
			h.trace.Record(TraceIRQResync, uint8(JobAcquisition), 0, 0)
		}
		h.sched.Schedule(JobAcquisition)
	}
	h.sched.RestoreInterrupts(state)
}

// ReadRegisters reads len(buf) consecutive registers starting at start.
func (h *HY3131) ReadRegisters(start uint8, buf []byte) error {
	if h.bus == nil {
		return ErrNoTransport
	}
	if int(start)+len(buf) > 0x80 {
		return ErrShortRegister
	}
	if err := h.bus.ReadRegisters(start, buf); err != nil {
		h.chipError(start, err)
		return err
	}
	return nil
}

// WriteRegisters writes data to consecutive registers starting at start.
func (h *HY3131) WriteRegisters(start uint8, data []byte) error {
	if h.bus == nil {
		return ErrNoTransport
	}
	if int(start)+len(data) > 0x80 {
		return ErrShortRegister
	}
	if err := h.bus.WriteRegisters(start, data); err != nil {
		h.chipError(start, err)
		return err
	}
	return nil
}

// ReadInterruptFlags reads INTF, which also clears it on the chip.
func (h *HY3131) ReadInterruptFlags() (uint8, error) {
	var b [1]byte
	if err := h.ReadRegisters(HYRegINTF, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteInterruptEnable writes INTE.
func (h *HY3131) WriteInterruptEnable(mask uint8) error {
	return h.WriteRegisters(HYRegINTE, []byte{mask})
}

// ReadInt24 reads a 3 byte signed data register.
func (h *HY3131) ReadInt24(reg uint8) (int32, error) {
	raw, err := h.ReadUint24(reg)
	if err != nil {
		return 0, err
	}
	return SignExtend24(raw), nil
}

// ReadUint24 reads a 3 byte unsigned register such as a counter.
func (h *HY3131) ReadUint24(reg uint8) (uint32, error) {
	var b [3]byte
	if err := h.ReadRegisters(reg, b[:]); err != nil {
		return 0, err
	}
	return LE24(b[:]), nil
}

// ReadInt40 reads the 5 byte signed RMS register.
func (h *HY3131) ReadInt40(reg uint8) (int64, error) {
	var b [5]byte
	if err := h.ReadRegisters(reg, b[:]); err != nil {
		return 0, err
	}
	return SignExtend40(LE40(b[:])), nil
}

// Errors returns the number of failed register transactions.
func (h *HY3131) Errors() uint32 {
	return h.errors
}

func (h *HY3131) chipError(reg uint8, err error) {
	h.errors++
	if h.trace != nil {
		h.trace.Record(TraceChipError, reg, h.errors, 0)
	}
	DebugPrintln("[HY3131] register " + itoa(int(reg)) + ": " + err.Error())
}

// LE24 decodes a little endian 24-bit value.
func LE24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// LE40 decodes a little endian 40-bit value.
func LE40(b []byte) uint64 {
	_ = b[4]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 |
		uint64(b[3])<<24 | uint64(b[4])<<32
}

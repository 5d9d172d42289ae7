//go:build rp2040

package main

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"gometer/core"
)

// PIOSPI is an SPI mode 1 master running on one PIO state machine, with
// the same bit timing as core.SoftSPI: data out, a clock pulse, then MISO
// sampled after the falling edge. SCK is side-set, MOSI is the OUT pin and
// MISO the IN pin. Bytes go out most significant bit first with autopull
// and come back through autopush, both at 8 bits. It implements drivers.SPI.
type PIOSPI struct {
	pio *rp2pio.PIO
	sm  rp2pio.StateMachine
}

// buildSPIProgram creates the shift loop using AssemblerV0. Each bit takes
// eight cycles. The input synchroniser delays what IN sees by two cycles,
// so the sample waits three cycles past the falling edge.
func buildSPIProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 1}
	return []uint16{
		// .wrap_target
		asm.Out(rp2pio.OutDestPins, 1).Side(0).Delay(1).Encode(), // 0: out pins, 1 side 0 [1]
		asm.Nop().Side(1).Delay(1).Encode(),                      // 1: nop side 1 [1]
		asm.Nop().Side(0).Delay(2).Encode(),                      // 2: nop side 0 [2]
		asm.In(rp2pio.InSrcPins, 1).Side(0).Encode(),             // 3: in pins, 1 side 0
		// .wrap
	}
}

const spiPIOOrigin = -1 // anywhere; the program has no jumps

// NewPIOSPI claims a state machine and starts the program. clkDiv is the
// integer system clock divider; SCK runs at sysclk / (8 * clkDiv).
func NewPIOSPI(pioNum, smNum uint8, sck, mosi, miso machine.Pin, clkDiv uint16) (*PIOSPI, error) {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	s := &PIOSPI{pio: pioHW, sm: pioHW.StateMachine(smNum)}

	// Claim the state machine first
	s.sm.TryClaim()

	program := buildSPIProgram()
	offset, err := s.pio.AddProgram(program, spiPIOOrigin)
	if err != nil {
		return nil, err
	}

	for _, pin := range []machine.Pin{sck, mosi, miso} {
		pin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSidesetParams(1, false, false)
	cfg.SetSidesetPins(sck)
	cfg.SetOutPins(mosi, 1)
	cfg.SetInPins(miso)
	// shift left, autopull/autopush at one byte
	cfg.SetOutShift(false, true, 8)
	cfg.SetInShift(false, true, 8)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(clkDiv, 0)

	// Initialize state machine FIRST
	s.sm.Init(offset, cfg)

	// THEN set pin directions (must be after Init!)
	s.sm.SetPindirsConsecutive(sck, 1, true)
	s.sm.SetPindirsConsecutive(mosi, 1, true)
	s.sm.SetPindirsConsecutive(miso, 1, false)
	s.sm.SetPinsConsecutive(sck, 1, false)

	s.sm.SetEnabled(true)
	return s, nil
}

// Transfer clocks one byte out and returns the byte clocked in.
func (s *PIOSPI) Transfer(b byte) (byte, error) {
	for s.sm.IsTxFIFOFull() {
	}
	// left shift takes bits from the top of the word
	s.sm.TxPut(uint32(b) << 24)
	for s.sm.IsRxFIFOEmpty() {
	}
	return byte(s.sm.RxGet()), nil
}

// Tx writes w and reads into r. Either may be nil; zeros are sent for a
// read-only transfer.
func (s *PIOSPI) Tx(w, r []byte) error {
	return core.TxBytes(s.Transfer, w, r)
}

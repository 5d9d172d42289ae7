package core

// AcqMode selects an acquisition mode handler. The set is closed; keep the
// order in step with defaultAcqModes.
type AcqMode uint8

const (
	AcqModeMisc AcqMode = iota
	AcqModeVoltsDC

	numAcqModes
)

func (m AcqMode) String() string {
	switch m {
	case AcqModeMisc:
		return "misc"
	case AcqModeVoltsDC:
		return "volts_dc"
	default:
		return "acq?"
	}
}

// Submodes. Each mode numbers its own from 0.
const (
	AcqSubmodeOff = 0

	VoltsDC5V    = 0
	VoltsDC50V   = 1
	VoltsDC500V  = 2
	VoltsDC1000V = 3
)

// AcqEvent is delivered to the active mode handler.
type AcqEvent uint8

const (
	// from the measurement and system jobs

	AcqEventStart      AcqEvent = iota // value is the initial submode
	AcqEventStop                       // value is meaningless
	AcqEventSetSubmode                 // value is the new submode

	// from the acquisition job; value is the sign-extended sample

	AcqEventNewAD1
	AcqEventNewAD2
	AcqEventNewLPF
	AcqEventNewRMS
	AcqEventNewCT
)

// AcqModeHandler is one acquisition mode's state machine.
type AcqModeHandler interface {
	Handle(a *Acquisition, ev AcqEvent, value int64)
}

func defaultAcqModes() [numAcqModes]AcqModeHandler {
	return [numAcqModes]AcqModeHandler{
		AcqModeMisc:    acqModeMisc{},
		AcqModeVoltsDC: acqModeVoltsDC{},
	}
}

// acqModeMisc keeps the chip quiet whatever it is told.
type acqModeMisc struct{}

func (acqModeMisc) Handle(a *Acquisition, ev AcqEvent, value int64) {
	if ev == AcqEventStart || ev == AcqEventSetSubmode {
		a.submode = int(value)
	}
	a.chip.DisableIRQ()
	a.SetIntMask(0)
}

// voltsDCRange is one range's chip profile and placeholder calibration.
type voltsDCRange struct {
	regs    [HYConfigLen]byte
	num     int64
	den     int64
	decimal Decimal
}

// 5.0000V profile, measured on a real meter
var voltsDC5VRegs = [HYConfigLen]byte{
	0, 0, 0x13, 0x8A, 5, 0x40, 0, 0x4D, 0x31, 1,
	0x22, 0, 0, 0x90, 0x28, 0xA0, 0x80, 0xC7, 0, 0x20,
}

// TODO: capture the 50V, 500V and 1000V divider profiles; they reuse the 5V image.
var voltsDCRanges = [...]voltsDCRange{
	VoltsDC5V:    {regs: voltsDC5VRegs, num: 100, den: 6, decimal: Decimal1d0000},
	VoltsDC50V:   {regs: voltsDC5VRegs, num: 10, den: 6, decimal: Decimal10d000},
	VoltsDC500V:  {regs: voltsDC5VRegs, num: 1, den: 6, decimal: Decimal100d00},
	VoltsDC1000V: {regs: voltsDC5VRegs, num: 1, den: 60, decimal: Decimal1000d0},
}

// VoltsDCRanges is the number of volts DC submodes.
const VoltsDCRanges = len(voltsDCRanges)

type acqModeVoltsDC struct{}

func (acqModeVoltsDC) Handle(a *Acquisition, ev AcqEvent, value int64) {
	switch ev {
	case AcqEventStart, AcqEventSetSubmode:
		// starting and switching range are the same:
		// program the range's profile into the chip
		submode := int(value)
		if submode < 0 || submode >= len(voltsDCRanges) {
			DebugPrintln("[ACQ] volts dc: bad range " + itoa(submode))
			return
		}
		a.chip.DisableIRQ()
		if err := a.chip.WriteRegisters(HYRegConfig, voltsDCRanges[submode].regs[:]); err != nil {
			return
		}
		a.submode = submode
		a.SetIntMask(HYIntAD1)
		a.chip.EnableIRQ(true)

	case AcqEventNewAD1:
		rng := voltsDCRanges[a.submode]
		// truncates toward zero
		mc := value * rng.num / rng.den
		a.PutReading(Reading{
			Millicounts: int32(mc),
			Unit:        UnitVolts,
			Exponent:    Exponent(a.submode),
			Decimal:     rng.decimal,
			Kind:        KindMain,
		})

	case AcqEventStop:
		a.chip.DisableIRQ()
		a.SetIntMask(0)
	}
}

package core

// MeasMode selects a measurement mode handler.
type MeasMode uint8

const (
	MeasModeOff MeasMode = iota
	MeasModeVoltsDC

	numMeasModes
)

func (m MeasMode) String() string {
	switch m {
	case MeasModeOff:
		return "off"
	case MeasModeVoltsDC:
		return "volts_dc"
	default:
		return "meas?"
	}
}

// MeasEvent is delivered to the active measurement mode handler.
type MeasEvent uint8

const (
	MeasEventStart MeasEvent = iota
	MeasEventStop
	MeasEventSetRange // the new range is Measurement.Range
	MeasEventNewAcq   // the reading is a fresh acquisition
)

// MeasModeHandler is one measurement mode's state machine.
type MeasModeHandler interface {
	Handle(m *Measurement, ev MeasEvent, r Reading)
}

// Slot carrying the main screen reading.
const SlotMain = 0

func defaultMeasModes(averaging int) [numMeasModes]MeasModeHandler {
	return [numMeasModes]MeasModeHandler{
		MeasModeOff:     measModeOff{},
		MeasModeVoltsDC: &measModeVoltsDC{depth: averaging},
	}
}

type measModeOff struct{}

func (measModeOff) Handle(m *Measurement, ev MeasEvent, _ Reading) {
	if ev == MeasEventStart {
		// not measuring anything, so acquisition has nothing to do either
		m.acq.SetMode(AcqModeMisc, AcqSubmodeOff)
	}
}

// measModeVoltsDC averages depth acquisitions into each published reading.
type measModeVoltsDC struct {
	depth int
	sum   int64
	n     int
	exp   Exponent
}

func (v *measModeVoltsDC) reset() {
	v.sum = 0
	v.n = 0
}

func (v *measModeVoltsDC) Handle(m *Measurement, ev MeasEvent, r Reading) {
	switch ev {
	case MeasEventStart:
		v.reset()
		m.acq.SetMode(AcqModeVoltsDC, VoltsDC5V)

	case MeasEventSetRange:
		rng := m.Range()
		if rng < 0 || rng >= VoltsDCRanges {
			return
		}
		v.reset()
		m.acq.SetSubmode(rng)

	case MeasEventNewAcq:
		// samples still queued from the previous range are not averaged in
		if v.n > 0 && r.Exponent != v.exp {
			v.reset()
		}
		v.exp = r.Exponent
		v.sum += int64(r.Millicounts)
		v.n++
		if v.n < v.depth {
			return
		}
		// reuse the reading since all the other parameters are the same
		r.Millicounts = int32(v.sum / int64(v.depth))
		v.reset()
		m.PutReading(SlotMain, r)

	default:
		// the next mode's START sets acquisition up as it likes
	}
}

package core

// Unit is the base unit of a Reading.
// The order matches the unit icon table of the display.
type Unit uint8

const (
	UnitNone Unit = iota
	UnitAmps
	UnitPercent
	UnitFarads
	UnitHertz
	UnitSeconds
	UnitOhms
	UnitVolts
	UnitDegC
	UnitDegF
	UnitDB
)

var unitNames = [...]string{"", "A", "%", "F", "Hz", "s", "Ohm", "V", "degC", "degF", "dB"}

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return "?"
}

// Exponent is a signed display-scale step. It is not normalized against
// Millicounts: 1000.0V and 1.0000kV are both valid and differ here.
// Range-based modes store their submode index, so the step is relative to
// the mode's finest range.
type Exponent int8

// Named prefixes for renderers that light an exponent icon.
const (
	ExponentNano  Exponent = -3
	ExponentMicro Exponent = -2
	ExponentMilli Exponent = -1
	ExponentNone  Exponent = 0
	ExponentKilo  Exponent = 1
	ExponentMega  Exponent = 2
)

// Decimal selects which decimal point lights up on a five digit display.
type Decimal uint8

const (
	Decimal1d0000 Decimal = iota
	Decimal10d000
	Decimal100d00
	Decimal1000d0
	DecimalNone // no decimal point
)

// Places returns the number of digits right of the decimal point.
func (d Decimal) Places() int {
	if d >= DecimalNone {
		return 0
	}
	return 4 - int(d)
}

// Kind is the reading's routing tag, and thus its fate.
type Kind uint8

const (
	KindMain Kind = iota // main screen reading
	KindSub              // sub screen reading
)

// Reading is a calibrated, unit-tagged measurement. It is always passed by
// value; no stage keeps a reference into another's storage.
type Reading struct {
	// one count is one least significant display digit,
	// so a reading is 1000 times more precise than what is shown
	Millicounts int32
	// milliseconds since boot when the sample was taken, for logging
	TimeMs   uint32
	Unit     Unit
	Exponent Exponent
	Decimal  Decimal
	Kind     Kind
}

// Counts returns the displayed value in least significant digits,
// truncated toward zero.
func (r Reading) Counts() int32 {
	return r.Millicounts / 1000
}

// Format renders the displayed digits with the reading's decimal point.
func (r Reading) Format() string {
	return fixedPoint(int64(r.Counts()), r.Decimal.Places())
}

// String renders the value followed by its unit, e.g. "1.0000 V".
func (r Reading) String() string {
	s := r.Format()
	if r.Unit != UnitNone {
		s += " " + r.Unit.String()
	}
	return s
}

// SignExtend24 widens a 24-bit two's complement register value.
func SignExtend24(raw uint32) int32 {
	return int32(raw<<8) >> 8
}

// SignExtend40 widens a 40-bit two's complement register value.
func SignExtend40(raw uint64) int64 {
	return int64(raw<<24) >> 24
}

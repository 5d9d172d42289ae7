package core

// Acquisition owns the measurement chip: its mode state machine, its
// interrupt mask, and the conversion of raw samples into Readings, which it
// queues for the measurement job.
//
// Mode and mask state is only written from the system and measurement jobs
// while the acquisition job is disabled, and only read from the
// acquisition job, so none of it needs a critical section.
type Acquisition struct {
	sched *Scheduler
	chip  *HY3131
	power PowerControl
	queue *ReadingQueue
	clock Clock
	trace *TraceRing

	modes   [numAcqModes]AcqModeHandler
	mode    AcqMode
	submode int
	handler AcqModeHandler
	intMask uint8
}

// NewAcquisition creates an engine with no active mode. power and clock may
// be nil.
func NewAcquisition(sched *Scheduler, chip *HY3131, power PowerControl, queue *ReadingQueue, clock Clock) *Acquisition {
	a := &Acquisition{
		sched: sched,
		chip:  chip,
		power: power,
		queue: queue,
		clock: clock,
		modes: defaultAcqModes(),
	}
	sched.Attach(JobAcquisition, a.ProcessChipInterrupt)
	return a
}

// SetTrace records mode switches and dropped readings in t.
func (a *Acquisition) SetTrace(t *TraceRing) {
	a.trace = t
}

// Init powers the measurement supplies, resets the chip and starts the
// quiescent mode. There is no previous mode to stop.
func (a *Acquisition) Init() {
	if a.power != nil {
		// digital first, then the 4V analog supply
		a.power.SetRails(true)
		a.power.ResetChip()
	}
	a.mode = AcqModeMisc
	a.submode = AcqSubmodeOff
	a.handler = a.modes[AcqModeMisc]
	a.handler.Handle(a, AcqEventStart, int64(AcqSubmodeOff))
}

// Deinit stops whatever is running and powers everything down.
func (a *Acquisition) Deinit() {
	a.SetMode(AcqModeMisc, AcqSubmodeOff)
	a.handler = nil
	if a.power != nil {
		a.power.PowerDownChip()
		a.power.SetRails(false)
	}
}

// SetMode stops the current mode and starts mode at submode.
func (a *Acquisition) SetMode(mode AcqMode, submode int) {
	if mode >= numAcqModes {
		return
	}
	// no chip interrupts while the handler is swapped;
	// the new mode's START decides whether they come back
	a.chip.DisableIRQ()

	if a.handler != nil {
		a.handler.Handle(a, AcqEventStop, 0)
	}
	if a.trace != nil {
		a.trace.Record(TraceAcqMode, uint8(JobAcquisition), uint32(mode), uint32(submode))
	}
	a.mode = mode
	a.handler = a.modes[mode]
	a.handler.Handle(a, AcqEventStart, int64(submode))
}

// SetSubmode switches submode within the current mode without stopping it.
func (a *Acquisition) SetSubmode(submode int) {
	if a.handler == nil {
		return
	}
	a.handler.Handle(a, AcqEventSetSubmode, int64(submode))
}

// SetIntMask selects which chip interrupt sources are delivered. Flags
// latched under the old mask are cleared first so they are not delivered
// under the new one.
func (a *Acquisition) SetIntMask(mask uint8) {
	was := a.chip.DisableIRQ()

	// reading INTF clears it
	_, _ = a.chip.ReadInterruptFlags()
	_ = a.chip.WriteInterruptEnable(mask)
	a.intMask = mask

	a.chip.EnableIRQ(was)
}

// Mode returns the active mode.
func (a *Acquisition) Mode() AcqMode { return a.mode }

// Submode returns the active submode.
func (a *Acquisition) Submode() int { return a.submode }

// IntMask returns the chip interrupt sources currently delivered.
func (a *Acquisition) IntMask() uint8 { return a.intMask }

// Chip returns the chip wrapper the engine drives.
func (a *Acquisition) Chip() *HY3131 { return a.chip }

// ProcessChipInterrupt is the JobAcquisition handler. It reads and clears
// the chip's interrupt flags and hands each enabled source's sample to the
// current mode.
func (a *Acquisition) ProcessChipInterrupt() {
	flags, err := a.chip.ReadInterruptFlags()
	if err != nil {
		return
	}
	flags &= a.intMask
	if flags == 0 {
		return
	}

	if flags&HYIntAD1 != 0 {
		if v, err := a.chip.ReadInt24(HYRegAD1); err == nil {
			a.event(AcqEventNewAD1, int64(v))
		}
	}
	if flags&HYIntAD2 != 0 {
		if v, err := a.chip.ReadInt24(HYRegAD2); err == nil {
			a.event(AcqEventNewAD2, int64(v))
		}
	}
	if flags&HYIntLPF != 0 {
		if v, err := a.chip.ReadInt24(HYRegLPF); err == nil {
			a.event(AcqEventNewLPF, int64(v))
		}
	}
	if flags&HYIntRMS != 0 {
		if v, err := a.chip.ReadInt40(HYRegRMS); err == nil {
			a.event(AcqEventNewRMS, v)
		}
	}
	if flags&HYIntCT != 0 {
		if v, err := a.chip.ReadUint24(HYRegCTA); err == nil {
			a.event(AcqEventNewCT, int64(v))
		}
	}
}

func (a *Acquisition) event(ev AcqEvent, value int64) {
	if a.handler != nil {
		a.handler.Handle(a, ev, value)
	}
}

// PutReading stamps r and queues it for the measurement job, which is
// scheduled either way. A full queue drops r.
func (a *Acquisition) PutReading(r Reading) {
	if a.clock != nil {
		r.TimeMs = a.clock.Millis()
	}
	if !a.queue.Put(r) && a.trace != nil {
		a.trace.Record(TraceQueueDrop, uint8(JobAcquisition), a.queue.Dropped(), 0)
	}
	// the measurement job is surely interested in the new reading
	a.sched.Schedule(JobMeasurement)
}

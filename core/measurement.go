package core

// DefaultAveraging is how many acquisitions volts DC averages into one
// reading.
const DefaultAveraging = 8

// Measurement post-processes acquisition readings per a mode state machine
// and publishes finished readings to the system job through ReadingSlots.
type Measurement struct {
	sched *Scheduler
	acq   *Acquisition
	queue *ReadingQueue
	slots *ReadingSlots
	trace *TraceRing

	modes   [numMeasModes]MeasModeHandler
	mode    MeasMode
	handler MeasModeHandler
	rng     int
}

// NewMeasurement creates an engine with no active mode. averaging is the
// volts DC depth; values below 1 mean DefaultAveraging.
func NewMeasurement(sched *Scheduler, acq *Acquisition, queue *ReadingQueue, slots *ReadingSlots, averaging int) *Measurement {
	if averaging < 1 {
		averaging = DefaultAveraging
	}
	m := &Measurement{
		sched: sched,
		acq:   acq,
		queue: queue,
		slots: slots,
		modes: defaultMeasModes(averaging),
	}
	sched.Attach(JobMeasurement, m.HandleJob)
	return m
}

// SetTrace records mode switches in t.
func (m *Measurement) SetTrace(t *TraceRing) {
	m.trace = t
}

// Init starts the off mode by hand, since there is no previous mode to
// stop. Off forces acquisition into its quiescent mode.
func (m *Measurement) Init() {
	m.mode = MeasModeOff
	m.handler = m.modes[MeasModeOff]
	m.handler.Handle(m, MeasEventStart, Reading{})
}

// Deinit stops the current measurement by switching to off.
func (m *Measurement) Deinit() {
	m.SetMode(MeasModeOff)
	m.handler = nil
}

// SetMode stops the current mode and starts mode. The new mode's START puts
// acquisition into whatever it needs.
func (m *Measurement) SetMode(mode MeasMode) {
	if mode >= numMeasModes {
		return
	}
	if m.handler != nil {
		m.handler.Handle(m, MeasEventStop, Reading{})
	}
	if m.trace != nil {
		m.trace.Record(TraceMeasMode, uint8(JobMeasurement), uint32(mode), 0)
	}
	m.mode = mode
	m.rng = 0
	m.handler = m.modes[mode]
	m.handler.Handle(m, MeasEventStart, Reading{})
}

// SetRange selects a range within a ranged mode. Modes without ranges
// ignore it.
func (m *Measurement) SetRange(rng int) {
	if m.handler == nil {
		return
	}
	m.rng = rng
	m.handler.Handle(m, MeasEventSetRange, Reading{})
}

// Mode returns the active mode.
func (m *Measurement) Mode() MeasMode { return m.mode }

// Range returns the range last selected with SetRange.
func (m *Measurement) Range() int { return m.rng }

// HandleJob is the JobMeasurement handler. It drains every queued
// acquisition, so none is skipped when several arrived before it ran.
func (m *Measurement) HandleJob() {
	for {
		r, ok := m.queue.Get()
		if !ok {
			return
		}
		if m.handler != nil {
			m.handler.Handle(m, MeasEventNewAcq, r)
		}
	}
}

// PutReading publishes a finished reading into a slot for the system job.
func (m *Measurement) PutReading(slot int, r Reading) {
	m.slots.Set(slot, r)
}

package core

import "context"

// Config holds the firmware's tunables.
type Config struct {
	// Averaging is how many acquisitions volts DC averages per reading.
	// 1 passes every acquisition through.
	Averaging int
	// ReportBuffer is the report FIFO size in bytes.
	ReportBuffer int
	// Debug turns on DebugPrintln output.
	Debug bool
}

// DefaultConfig returns the configuration the meter ships with.
func DefaultConfig() Config {
	return Config{
		Averaging:    DefaultAveraging,
		ReportBuffer: DefaultReportBuffer,
	}
}

// Firmware wires the jobs, engines and collaborators of one meter.
type Firmware struct {
	cfg Config

	Sched    *Scheduler
	Timer    *Timer
	Chip     *HY3131
	Acq      *Acquisition
	Meas     *Measurement
	Buttons  *Buttons
	Queue    *ReadingQueue
	Slots    *ReadingSlots
	Reporter *Reporter
	Trace    *TraceRing

	display Display

	// system job state
	selector   Button
	lastButton Button
	lastState  ButtonState
	rng        int
	hold       bool
}

// New builds a firmware instance. Nothing runs until Boot.
func New(cfg Config, hal HAL) *Firmware {
	if cfg.Averaging < 1 {
		cfg.Averaging = DefaultAveraging
	}
	if cfg.ReportBuffer <= 0 {
		cfg.ReportBuffer = DefaultReportBuffer
	}
	SetDebugEnabled(cfg.Debug)

	f := &Firmware{cfg: cfg, display: hal.Display}
	if f.display == nil {
		f.display = nopDisplay{}
	}
	in := hal.Buttons
	if in == nil {
		in = nopButtons{}
	}

	f.Sched = NewScheduler()
	f.Buttons = NewButtons(in, f.Sched)
	f.Timer = NewTimer(f.Sched, f.Buttons, f.display)
	f.Trace = NewTraceRing(f.Timer.Millis)
	f.Sched.SetTrace(f.Trace)

	f.Queue = NewReadingQueue(f.Sched)
	f.Slots = NewReadingSlots(f.Sched, JobSystem)
	f.Chip = NewHY3131(hal.Chip, hal.IRQ, f.Sched)
	f.Chip.SetTrace(f.Trace)
	f.Acq = NewAcquisition(f.Sched, f.Chip, hal.Power, f.Queue, f.Timer)
	f.Acq.SetTrace(f.Trace)
	f.Meas = NewMeasurement(f.Sched, f.Acq, f.Queue, f.Slots, cfg.Averaging)
	f.Meas.SetTrace(f.Trace)
	f.Reporter = NewReporter(cfg.ReportBuffer)
	f.Reporter.SetTrace(f.Trace)

	f.Sched.Attach(Job10msTimer, f.Timer.HandleJob)
	f.Sched.Attach(JobSystem, f.handleSystemJob)
	return f
}

// Config returns the configuration in effect.
func (f *Firmware) Config() Config { return f.cfg }

// Boot brings the meter up in the same order as the hardware reset path.
func (f *Firmware) Boot() {
	f.Sched.Init()
	f.Acq.Init()
	f.Meas.Init()
	f.Timer.Init()

	// enable all the jobs so the system starts working
	f.Sched.Enable(JobSystem)
	f.Sched.Enable(Job10msTimer)
	f.Sched.Enable(JobMeasurement)
	DebugPrintln("[SYS] boot complete")
}

// Run is the idle loop. It returns when ctx is done.
func (f *Firmware) Run(ctx context.Context) error {
	return f.Sched.Run(ctx)
}

// Shutdown stops measuring, powers the chip down and disables every job.
func (f *Firmware) Shutdown() {
	f.Meas.Deinit()
	f.Acq.Deinit()
	f.Timer.Deinit()
	f.Sched.Deinit()
	if IsDebugEnabled() {
		f.Trace.Dump()
	}
}

// measModeFor maps a selector position to the measurement it selects.
func measModeFor(sel Button) MeasMode {
	switch sel {
	case SelectorVolts:
		return MeasModeVoltsDC
	default:
		return MeasModeOff
	}
}

// handleSystemJob is the lowest priority job: it runs the UI and routes
// finished readings to the display and the report stream.
func (f *Firmware) handleSystemJob() {
	// a selector between positions reads as none; keep the old mode
	if sel := f.Buttons.GetSelector(); sel != ButtonNone && sel != f.selector {
		f.selector = sel
		f.rng = 0
		mode := measModeFor(sel)
		f.Meas.SetMode(mode)
		if mode == MeasModeOff {
			f.display.RenderText(ScreenMain, "OFF")
			f.display.QueueUpdate()
		}
	}

	if btn, state := f.Buttons.GetNew(); btn != ButtonNone {
		f.lastButton, f.lastState = btn, state
		if state == ButtonJustPressed {
			f.handleKey(btn)
		}
	}

	if r, ok := f.Slots.Get(SlotMain); ok {
		if !f.hold {
			f.display.RenderReading(ScreenMain, r)
		}
		f.Reporter.PutReading(r)
		f.display.QueueUpdate()
	}

	sub := Reading{
		Millicounts: int32(f.lastButton)*1000 +
			int32(f.lastState)*100000 +
			int32(f.selector)*1000000,
		Unit:     UnitNone,
		Exponent: ExponentNone,
		Decimal:  DecimalNone,
		Kind:     KindSub,
	}
	f.display.RenderReading(ScreenSub, sub)
	f.display.QueueUpdate()
}

func (f *Firmware) handleKey(btn Button) {
	switch btn {
	case ButtonRange:
		if f.Meas.Mode() != MeasModeVoltsDC {
			return
		}
		f.rng = (f.rng + 1) % VoltsDCRanges
		f.Meas.SetRange(f.rng)
	case ButtonHold:
		f.hold = !f.hold
	}
}

// Hold reports whether the main screen is frozen.
func (f *Firmware) Hold() bool { return f.hold }

type nopDisplay struct{}

func (nopDisplay) RenderReading(Screen, Reading) {}
func (nopDisplay) RenderText(Screen, string)     {}
func (nopDisplay) QueueUpdate()                  {}
func (nopDisplay) Flush()                        {}

type nopButtons struct{}

func (nopButtons) Pressed(Button) bool { return false }

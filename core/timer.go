package core

import "sync/atomic"

// Timer keeps the two system time bases: the 1ms tick counted by the SysTick
// interrupt and the 10ms tick that drives button polling and display
// refresh through Job10msTimer.
type Timer struct {
	ticks1ms  atomic.Uint32
	ticks10ms atomic.Uint32
	inited    atomic.Bool

	sched   *Scheduler
	buttons *Buttons
	display Display
}

// NewTimer creates a stopped timer. buttons and display may be nil.
func NewTimer(sched *Scheduler, buttons *Buttons, display Display) *Timer {
	return &Timer{sched: sched, buttons: buttons, display: display}
}

// Init zeroes both tick counts and starts counting 1ms ticks. The 10ms job
// runs once it is enabled.
func (t *Timer) Init() {
	state := t.sched.DisableInterrupts()
	t.inited.Store(true)
	t.ticks1ms.Store(0)
	t.ticks10ms.Store(0)
	t.sched.RestoreInterrupts(state)
}

// Deinit stops counting and turns off the 10ms job.
func (t *Timer) Deinit() {
	t.inited.Store(false)
	t.sched.Disable(Job10msTimer)
}

// Tick1ms is the SysTick interrupt entry. It may run on any goroutine.
func (t *Timer) Tick1ms() {
	if !t.inited.Load() {
		return
	}
	t.ticks1ms.Add(1)
}

// Tick10ms is the 10ms hardware timer interrupt entry.
func (t *Timer) Tick10ms() {
	t.sched.Interrupt(Job10msTimer)
}

// HandleJob is the Job10msTimer handler.
func (t *Timer) HandleJob() {
	t.ticks10ms.Add(1)

	if t.buttons != nil {
		t.buttons.Process()
	}
	if t.display != nil {
		t.display.Flush()
	}

	// the system job is surely interested in what's changed as a result
	t.sched.Schedule(JobSystem)
}

// Millis returns the number of milliseconds since Init.
func (t *Timer) Millis() uint32 {
	return t.ticks1ms.Load()
}

// Ticks10ms returns the number of 10ms periods since Init.
func (t *Timer) Ticks10ms() uint32 {
	return t.ticks10ms.Load()
}

package core

import (
	"context"
	"sync/atomic"
)

// Job identifies one of the fixed deferred-execution contexts.
// Each job is bound to one vector and runs at one static priority; a job that
// is scheduled while enabled runs as soon as no more urgent code is executing.
type Job uint8

const (
	Job10msTimer Job = iota
	JobAcquisition
	JobMeasurement
	JobSystem

	numJobs
)

// Priority numbers go from 0 to 15, and 0 is the most important.
// The ordering is a correctness requirement: acquisition must preempt
// measurement and the UI so chip transactions are never torn by a slower
// consumer, and the ticks must preempt everything for timing accuracy.
const (
	PrioritySysTick     uint8 = 0
	Priority10msTimer   uint8 = 1
	PriorityAcquisition uint8 = 5
	PriorityMeasurement uint8 = 7
	PrioritySystem      uint8 = 10

	// priorityIdle is the level of the idle loop; every job preempts it.
	priorityIdle uint8 = 0xFF
)

func (j Job) String() string {
	switch j {
	case Job10msTimer:
		return "timer10ms"
	case JobAcquisition:
		return "acquisition"
	case JobMeasurement:
		return "measurement"
	case JobSystem:
		return "system"
	default:
		return "job?"
	}
}

func (j Job) bit() uint32 { return 1 << uint32(j) }

// State is the interrupt state saved by DisableInterrupts.
type State struct {
	hw irqState
}

// CriticalSection is implemented by anything that can mask job dispatch.
// Shared state touched by more than one job is read-modify-written inside one.
type CriticalSection interface {
	DisableInterrupts() State
	RestoreInterrupts(State)
}

// Scheduler dispatches jobs by static priority, the way a nested vectored
// interrupt controller does: scheduling a more urgent job from inside a
// running one runs it immediately (preemption), while less urgent jobs wait
// until the running handler returns.
//
// Pending and enabled flags are atomic bitmasks so Interrupt may be called
// from an ISR or another goroutine. Everything else, including every job
// handler, runs on the goroutine that calls Run, Schedule or the other
// primitives.
type Scheduler struct {
	priority [numJobs]uint8
	handlers [numJobs]func()

	enabled atomic.Uint32
	pending atomic.Uint32

	level uint8 // priority of the code currently executing
	depth int   // critical section nesting

	wake  chan struct{}
	trace *TraceRing
}

// NewScheduler creates a scheduler with every job disabled and no handlers.
func NewScheduler() *Scheduler {
	return &Scheduler{
		level: priorityIdle,
		wake:  make(chan struct{}, 1),
	}
}

// SetTrace attaches a trace ring that records every dispatch.
func (s *Scheduler) SetTrace(t *TraceRing) {
	s.trace = t
}

// Attach binds a handler to a job's vector.
func (s *Scheduler) Attach(job Job, handler func()) {
	if job >= numJobs {
		return
	}
	s.handlers[job] = handler
}

// Init assigns the static priorities and leaves every job disabled.
func (s *Scheduler) Init() {
	// first, disable all the jobs
	s.Deinit()

	state := s.DisableInterrupts()
	s.priority[Job10msTimer] = Priority10msTimer
	s.priority[JobAcquisition] = PriorityAcquisition
	s.priority[JobMeasurement] = PriorityMeasurement
	s.priority[JobSystem] = PrioritySystem
	s.RestoreInterrupts(state)
}

// Deinit disables all the jobs at once.
func (s *Scheduler) Deinit() {
	state := s.DisableInterrupts()
	for j := Job(0); j < numJobs; j++ {
		s.Disable(j)
	}
	s.RestoreInterrupts(state)
}

// Priority returns the static priority of a job.
func (s *Scheduler) Priority(job Job) uint8 {
	if job >= numJobs {
		return priorityIdle
	}
	return s.priority[job]
}

// Enable allows a job to run if it is scheduled. Any schedule that arrived
// while the job was disabled is discarded first.
func (s *Scheduler) Enable(job Job) {
	if job >= numJobs {
		return
	}
	// un-pend to de-schedule, then enable
	clearBits(&s.pending, job.bit())
	setBits(&s.enabled, job.bit())
	s.dispatch()
}

// Resume re-enables a job without discarding its pending schedule.
// Does nothing unless resume is true.
func (s *Scheduler) Resume(job Job, resume bool) {
	if !resume || job >= numJobs {
		return
	}
	setBits(&s.enabled, job.bit())
	s.dispatch()
}

// Disable stops a job from running even if it is scheduled and reports
// whether it was enabled, for a later Resume.
func (s *Scheduler) Disable(job Job) bool {
	if job >= numJobs {
		return false
	}
	state := s.DisableInterrupts()
	wasEnabled := s.enabled.Load()&job.bit() != 0
	clearBits(&s.enabled, job.bit())
	s.RestoreInterrupts(state)
	return wasEnabled
}

// Schedule marks a job pending. It runs once, however many times it was
// scheduled, as soon as it is enabled and nothing more urgent is executing.
// Schedule must be called from job context or the idle goroutine; hardware
// sources use Interrupt.
func (s *Scheduler) Schedule(job Job) {
	if job >= numJobs {
		return
	}
	setBits(&s.pending, job.bit())
	s.dispatch()
}

// Interrupt marks a job pending from an interrupt or a foreign goroutine and
// wakes the idle loop. It never runs a handler itself.
func (s *Scheduler) Interrupt(job Job) {
	if job >= numJobs {
		return
	}
	setBits(&s.pending, job.bit())
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether a job is scheduled but has not run yet.
func (s *Scheduler) Pending(job Job) bool {
	return job < numJobs && s.pending.Load()&job.bit() != 0
}

// Enabled reports whether a job is allowed to run.
func (s *Scheduler) Enabled(job Job) bool {
	return job < numJobs && s.enabled.Load()&job.bit() != 0
}

// Level returns the priority of the code currently executing
// (0xFF when idle).
func (s *Scheduler) Level() uint8 {
	return s.level
}

// DisableInterrupts enters a critical section. Sections nest; jobs scheduled
// inside one run when the outermost section is left.
func (s *Scheduler) DisableInterrupts() State {
	hw := maskInterrupts()
	s.depth++
	return State{hw: hw}
}

// RestoreInterrupts leaves a critical section entered by DisableInterrupts.
func (s *Scheduler) RestoreInterrupts(state State) {
	if s.depth > 0 {
		s.depth--
	}
	unmaskInterrupts(state.hw)
	s.dispatch()
}

// Run is the idle loop: it dispatches whatever is pending and then waits for
// the next Interrupt. It returns when ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.dispatch()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

// dispatch runs every enabled, pending job that is more urgent than the
// current level, most urgent first. A handler that schedules a more urgent
// job re-enters dispatch, which is how preemption is modelled.
func (s *Scheduler) dispatch() {
	for s.depth == 0 {
		job, ok := s.next()
		if !ok {
			return
		}
		clearBits(&s.pending, job.bit())
		s.run(job)
	}
}

// next picks the most urgent runnable job that may preempt the current level.
func (s *Scheduler) next() (Job, bool) {
	runnable := s.pending.Load() & s.enabled.Load()
	if runnable == 0 {
		return 0, false
	}
	best := Job(0)
	bestPrio := priorityIdle
	for j := Job(0); j < numJobs; j++ {
		if runnable&j.bit() == 0 {
			continue
		}
		if p := s.priority[j]; p < bestPrio {
			best, bestPrio = j, p
		}
	}
	if bestPrio >= s.level {
		return 0, false
	}
	return best, true
}

func (s *Scheduler) run(job Job) {
	prev := s.level
	s.level = s.priority[job]
	if s.trace != nil {
		s.trace.Record(TraceJobRun, uint8(job), uint32(prev), uint32(s.level))
	}
	if h := s.handlers[job]; h != nil {
		h()
	}
	s.level = prev
}

func setBits(v *atomic.Uint32, bits uint32) {
	for {
		old := v.Load()
		if old&bits == bits || v.CompareAndSwap(old, old|bits) {
			return
		}
	}
}

func clearBits(v *atomic.Uint32, bits uint32) {
	for {
		old := v.Load()
		if old&bits == 0 || v.CompareAndSwap(old, old&^bits) {
			return
		}
	}
}

package core

// NumReadingSlots is the number of latest-value slots. Which slot carries
// what depends on the measurement mode.
const NumReadingSlots = 4

// ReadingSlots hands the latest reading per slot to a less urgent job.
// A publish overwrites whatever was not yet consumed; the consumer only ever
// sees the most recent value and one "new" signal.
type ReadingSlots struct {
	readings [NumReadingSlots]Reading
	isNew    [NumReadingSlots]bool

	sched  *Scheduler
	notify Job
}

// NewReadingSlots creates slots that schedule notify on every publish.
func NewReadingSlots(sched *Scheduler, notify Job) *ReadingSlots {
	return &ReadingSlots{sched: sched, notify: notify}
}

// Set publishes a reading into a slot and schedules the consumer.
func (s *ReadingSlots) Set(which int, r Reading) {
	if which < 0 || which >= NumReadingSlots {
		return
	}
	// nothing more urgent than the publisher touches the slots,
	// and the consumer cannot preempt it
	s.readings[which] = r
	s.isNew[which] = true
	// the consumer is surely interested in the new reading
	s.sched.Schedule(s.notify)
}

// Get returns the slot's reading if it is new, clearing the new flag.
func (s *ReadingSlots) Get(which int) (Reading, bool) {
	if which < 0 || which >= NumReadingSlots {
		return Reading{}, false
	}
	// stop the publisher fiddling with this slot
	state := s.sched.DisableInterrupts()
	defer s.sched.RestoreInterrupts(state)

	if !s.isNew[which] {
		return Reading{}, false
	}
	s.isNew[which] = false
	return s.readings[which], true
}

package core

import (
	"errors"
	"sync"
)

var errFakeBus = errors.New("fake bus failure")

// fakeChip is a register file that behaves like the HY3131's: reading INTF
// clears it.
type fakeChip struct {
	mu     sync.Mutex
	regs   [0x80]byte
	writes []fakeWrite
	fail   bool
	reads  int
}

type fakeWrite struct {
	start uint8
	data  []byte
}

func (c *fakeChip) ReadRegisters(start uint8, buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errFakeBus
	}
	c.reads++
	copy(buf, c.regs[start:])
	if start <= HYRegINTF && int(start)+len(buf) > int(HYRegINTF) {
		c.regs[HYRegINTF] = 0
	}
	return nil
}

func (c *fakeChip) WriteRegisters(start uint8, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errFakeBus
	}
	copy(c.regs[start:], data)
	c.writes = append(c.writes, fakeWrite{start: start, data: append([]byte(nil), data...)})
	return nil
}

// sample loads a 24-bit sample and raises its flag.
func (c *fakeChip) sample(reg uint8, flag uint8, v int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := uint32(v)
	c.regs[reg] = byte(u)
	c.regs[reg+1] = byte(u >> 8)
	c.regs[reg+2] = byte(u >> 16)
	c.regs[HYRegINTF] |= flag
}

func (c *fakeChip) reg(r uint8) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[r]
}

func (c *fakeChip) config() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.regs[HYRegConfig:HYRegConfig+HYConfigLen]...)
}

type fakeLine struct{ asserted bool }

func (l *fakeLine) Asserted() bool { return l.asserted }

type fakePower struct {
	calls []string
}

func (p *fakePower) SetRails(on bool) {
	if on {
		p.calls = append(p.calls, "rails_on")
	} else {
		p.calls = append(p.calls, "rails_off")
	}
}
func (p *fakePower) ResetChip()     { p.calls = append(p.calls, "reset") }
func (p *fakePower) PowerDownChip() { p.calls = append(p.calls, "power_down") }

type fakeButtons struct {
	pressed map[Button]bool
}

func newFakeButtons() *fakeButtons {
	return &fakeButtons{pressed: make(map[Button]bool)}
}

func (b *fakeButtons) Pressed(btn Button) bool { return b.pressed[btn] }

type rendered struct {
	screen  Screen
	reading Reading
	text    string
}

type fakeDisplay struct {
	frames  []rendered
	queued  bool
	flushes int
}

func (d *fakeDisplay) RenderReading(s Screen, r Reading) {
	d.frames = append(d.frames, rendered{screen: s, reading: r})
}
func (d *fakeDisplay) RenderText(s Screen, text string) {
	d.frames = append(d.frames, rendered{screen: s, text: text})
}
func (d *fakeDisplay) QueueUpdate() { d.queued = true }
func (d *fakeDisplay) Flush() {
	if d.queued {
		d.queued = false
		d.flushes++
	}
}

// last returns the most recent frame rendered to screen.
func (d *fakeDisplay) last(s Screen) (rendered, bool) {
	for i := len(d.frames) - 1; i >= 0; i-- {
		if d.frames[i].screen == s {
			return d.frames[i], true
		}
	}
	return rendered{}, false
}

// acqRig is an acquisition engine on a fake chip, with the scheduler
// initialised.
type acqRig struct {
	sched *Scheduler
	chip  *fakeChip
	line  *fakeLine
	hy    *HY3131
	queue *ReadingQueue
	acq   *Acquisition
	trace *TraceRing
}

func newAcqRig() *acqRig {
	r := &acqRig{
		sched: NewScheduler(),
		chip:  &fakeChip{},
		line:  &fakeLine{},
	}
	r.trace = NewTraceRing(nil)
	r.sched.SetTrace(r.trace)
	r.sched.Init()
	r.hy = NewHY3131(r.chip, r.line, r.sched)
	r.hy.SetTrace(r.trace)
	r.queue = NewReadingQueue(r.sched)
	r.acq = NewAcquisition(r.sched, r.hy, nil, r.queue, nil)
	r.acq.SetTrace(r.trace)
	return r
}

// runs counts how often job was dispatched, from the trace ring.
func runs(t *TraceRing, job Job) int {
	n := 0
	for _, ev := range t.Events() {
		if ev.EventType == TraceJobRun && ev.ID == uint8(job) {
			n++
		}
	}
	return n
}

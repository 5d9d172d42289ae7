package core

// ReadingQueueSize is the capacity of a ReadingQueue. It must be a power of
// two; one entry is reserved to tell full from empty.
const ReadingQueueSize = 32

// ReadingQueue is a bounded FIFO of readings between one producing job and
// one less urgent consuming job.
//
// The producer is the only writer of head and the consumer the only writer
// of tail. Put runs in the more urgent job and is never interrupted by the
// consumer, so it needs no critical section; Get and Clear do, because the
// producer may preempt them.
type ReadingQueue struct {
	buf     [ReadingQueueSize]Reading
	head    uint32 // next slot to write
	tail    uint32 // next slot to read
	dropped uint32
	cs      CriticalSection
}

const readingQueueMask = ReadingQueueSize - 1

// NewReadingQueue creates an empty queue guarded by cs.
func NewReadingQueue(cs CriticalSection) *ReadingQueue {
	return &ReadingQueue{cs: cs}
}

// Put appends a reading. When the queue is full the new reading is dropped
// silently; the producer never waits.
func (q *ReadingQueue) Put(r Reading) bool {
	next := (q.head + 1) & readingQueueMask
	if next == q.tail {
		q.dropped++
		return false
	}
	q.buf[q.head] = r
	q.head = next
	return true
}

// Get removes the oldest reading. It returns false when the queue is empty.
func (q *ReadingQueue) Get() (Reading, bool) {
	state := q.cs.DisableInterrupts()
	defer q.cs.RestoreInterrupts(state)

	if q.head == q.tail {
		return Reading{}, false
	}
	r := q.buf[q.tail]
	q.tail = (q.tail + 1) & readingQueueMask
	return r, true
}

// Clear discards every queued reading.
func (q *ReadingQueue) Clear() {
	state := q.cs.DisableInterrupts()
	q.tail = q.head
	q.cs.RestoreInterrupts(state)
}

// Len returns the number of queued readings.
func (q *ReadingQueue) Len() int {
	state := q.cs.DisableInterrupts()
	n := (q.head - q.tail) & readingQueueMask
	q.cs.RestoreInterrupts(state)
	return int(n)
}

// Dropped returns how many readings were discarded because the queue was full.
func (q *ReadingQueue) Dropped() uint32 {
	return q.dropped
}

package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a scheduling event for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	ID        uint8  // Job, mode or slot, depending on the event
	Clock     uint32 // Millisecond tick at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	TraceJobRun     = 1 // job dispatched; v1=preempted level, v2=job level
	TraceIRQResync  = 2 // chip line already asserted after re-enable
	TraceQueueDrop  = 3 // acquisition queue full, reading dropped
	TraceAcqMode    = 4 // acquisition mode switch; v1=mode, v2=submode
	TraceMeasMode   = 5 // measurement mode switch; v1=mode
	TraceChipError  = 6 // register transport failed; v1=register
	TraceReportDrop = 7 // report FIFO full, frame dropped
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a host logger, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// TraceRing is a fixed-size ring of scheduling events.
// Recording never blocks and never allocates; it is safe from any job.
type TraceRing struct {
	events [TraceRingSize]TraceEvent
	head   uint8
	clock  func() uint32
}

// NewTraceRing creates a ring stamping events with the given clock.
func NewTraceRing(clock func() uint32) *TraceRing {
	return &TraceRing{clock: clock}
}

// Record captures an event in the ring buffer
func (r *TraceRing) Record(eventType, id uint8, value1, value2 uint32) {
	var now uint32
	if r.clock != nil {
		now = r.clock()
	}
	idx := r.head
	r.events[idx] = TraceEvent{
		EventType: eventType,
		ID:        id,
		Clock:     now,
		Value1:    value1,
		Value2:    value2,
	}
	r.head = (idx + 1) % TraceRingSize
}

// Events returns the recorded events from oldest to newest
func (r *TraceRing) Events() []TraceEvent {
	out := make([]TraceEvent, 0, TraceRingSize)
	start := r.head
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := r.events[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Dump outputs the trace ring (call on shutdown/error)
func (r *TraceRing) Dump() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range r.Events() {
		var name string
		switch evt.EventType {
		case TraceJobRun:
			name = "JOB_RUN"
		case TraceIRQResync:
			name = "IRQ_RESYNC"
		case TraceQueueDrop:
			name = "QUEUE_DROP"
		case TraceAcqMode:
			name = "ACQ_MODE"
		case TraceMeasMode:
			name = "MEAS_MODE"
		case TraceChipError:
			name = "CHIP_ERR!"
		case TraceReportDrop:
			name = "REPORT_DROP"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TRACE] " + name +
			" id=" + itoa(int(evt.ID)) +
			" clock=" + itoa(int(evt.Clock)) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// Clear clears the trace buffer
func (r *TraceRing) Clear() {
	for i := range r.events {
		r.events[i] = TraceEvent{}
	}
	r.head = 0
}

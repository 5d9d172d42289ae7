package core

import (
	"sync"

	"gometer/protocol"
)

// DefaultReportBuffer is the report FIFO size in bytes.
const DefaultReportBuffer = 256

// Reporter encodes finished readings as protocol frames into a bounded
// FIFO that the target drains to its serial port. A frame that does not
// fit is dropped whole; the system job never waits for the port.
type Reporter struct {
	mu      sync.Mutex
	fifo    *protocol.FifoBuffer
	enc     protocol.FrameEncoder
	scratch *protocol.ScratchOutput
	dropped uint32
	trace   *TraceRing
}

// NewReporter creates a reporter with a FIFO of size bytes.
func NewReporter(size int) *Reporter {
	if size < protocol.MessageLengthMax {
		size = protocol.MessageLengthMax
	}
	return &Reporter{
		fifo:    protocol.NewFifoBuffer(size),
		scratch: protocol.NewScratchOutput(),
	}
}

// SetTrace records dropped frames in t.
func (rp *Reporter) SetTrace(t *TraceRing) {
	rp.trace = t
}

// PutReading queues one reading frame.
func (rp *Reporter) PutReading(r Reading) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.scratch.Reset()
	rp.enc.EncodeFrame(rp.scratch, func(out protocol.OutputBuffer) {
		EncodeReading(out, r)
	})
	frame := rp.scratch.Result()
	if !rp.fifo.WriteAll(frame) {
		rp.dropped++
		if rp.trace != nil {
			rp.trace.Record(TraceReportDrop, 0, rp.dropped, uint32(len(frame)))
		}
	}
}

// Read drains up to len(p) queued bytes into p.
func (rp *Reporter) Read(p []byte) int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.fifo.Read(p)
}

// Pending returns the number of queued bytes.
func (rp *Reporter) Pending() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.fifo.Available()
}

// Dropped returns the number of frames dropped for lack of room.
func (rp *Reporter) Dropped() uint32 {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.dropped
}

// EncodeReading writes a reading message body.
func EncodeReading(out protocol.OutputBuffer, r Reading) {
	protocol.EncodeVLQUint(out, protocol.MsgReading)
	protocol.EncodeVLQInt(out, r.Millicounts)
	protocol.EncodeVLQUint(out, r.TimeMs)
	protocol.EncodeVLQUint(out, uint32(r.Unit))
	protocol.EncodeVLQInt(out, int32(r.Exponent))
	protocol.EncodeVLQUint(out, uint32(r.Decimal))
	protocol.EncodeVLQUint(out, uint32(r.Kind))
}

// DecodeReading parses a reading message body, the message id included.
func DecodeReading(data *[]byte) (Reading, error) {
	var r Reading
	id, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return r, err
	}
	if id != protocol.MsgReading {
		return r, protocol.ErrUnknownMessage
	}
	var fields [6]int32
	for i := range fields {
		if fields[i], err = protocol.DecodeVLQInt(data); err != nil {
			return r, err
		}
	}
	r.Millicounts = fields[0]
	r.TimeMs = uint32(fields[1])
	r.Unit = Unit(fields[2])
	r.Exponent = Exponent(fields[3])
	r.Decimal = Decimal(fields[4])
	r.Kind = Kind(fields[5])
	return r, nil
}

package protocol

// FrameEncoder wraps message bodies into frames with a rolling sequence
// number, so a reader can tell how many frames it missed.
type FrameEncoder struct {
	seq uint8
}

// EncodeFrame writes one complete frame to output. body writes the frame
// contents.
func (e *FrameEncoder) EncodeFrame(output OutputBuffer, body func(output OutputBuffer)) {
	cursor := output.CurPosition()

	// length placeholder and sequence
	output.Output([]byte{0, MessageDest | (e.seq & MessageSeqMask)})
	e.seq++

	body(output)

	changed := len(output.DataSince(cursor))
	output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// Frame is one decoded frame.
type Frame struct {
	Seq     uint8
	Payload []byte // body without header and trailer
}

// FrameDecoder pulls frames out of a byte stream. After any malformed frame
// it discards bytes up to the next sync byte and carries on.
type FrameDecoder struct {
	buf      []byte
	synced   bool
	haveSeq  bool
	lastSeq  uint8
	lost     uint32
	errors   uint32
	maxBytes int
}

// NewFrameDecoder creates a decoder expecting a frame boundary. A stream
// joined mid-frame fails the length or CRC check and resyncs.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{synced: true, maxBytes: 4 * MessageLengthMax}
}

// Feed appends received bytes.
func (d *FrameDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
	if len(d.buf) > d.maxBytes && !d.synced {
		// nothing but noise so far
		d.buf = d.buf[len(d.buf)-MessageLengthMax:]
	}
}

// Next returns the next complete frame, or false if more bytes are needed.
func (d *FrameDecoder) Next() (Frame, bool) {
	for len(d.buf) > 0 {
		if !d.synced {
			syncPos := -1
			for i, b := range d.buf {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				d.buf = d.buf[:0]
				return Frame{}, false
			}
			d.buf = d.buf[syncPos+1:]
			d.synced = true
			continue
		}

		if d.buf[0] == MessageValueSync {
			d.buf = d.buf[1:]
			continue
		}

		if len(d.buf) < MessageLengthMin {
			return Frame{}, false
		}

		msgLen := int(d.buf[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		seq := d.buf[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		if len(d.buf) < msgLen {
			return Frame{}, false
		}

		if d.buf[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(d.buf[msgLen-MessageTrailerCRC])<<8 |
			uint16(d.buf[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(d.buf[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, d.buf[MessageHeaderSize:msgLen-MessageTrailerSize])
		d.buf = d.buf[msgLen:]

		seq &= MessageSeqMask
		if d.haveSeq {
			d.lost += uint32((seq - d.lastSeq - 1) & MessageSeqMask)
		}
		d.lastSeq, d.haveSeq = seq, true

		return Frame{Seq: seq, Payload: payload}, true
	}
	return Frame{}, false
}

// Lost returns how many frames the sequence numbers show were skipped.
// Gaps of 16 or more frames wrap and are undercounted.
func (d *FrameDecoder) Lost() uint32 { return d.lost }

// Errors returns how many malformed frames were discarded.
func (d *FrameDecoder) Errors() uint32 { return d.errors }

func (d *FrameDecoder) desync() {
	d.errors++
	d.synced = false
	// drop the bad length byte so the search starts past it
	d.buf = d.buf[1:]
}

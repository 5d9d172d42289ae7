// Package protocol frames the meter's report stream: VLQ encoded message
// bodies wrapped in length, sequence, CRC16 and sync bytes.
package protocol

import "errors"

// Version represents the gometer report protocol version
const Version = "0.1.0"

// Frame layout: [len][seq] body... [crc hi][crc lo][0x7E]
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	// The high nibble of every sequence byte is MessageDest; the low
	// nibble counts frames.
	MessageDest    = 0x10
	MessageSeqMask = 0x0F
	MessageScratch = 128 // ScratchOutput capacity
)

// Message ids
const (
	MsgReading uint32 = 1
)

var (
	ErrUnknownMessage = errors.New("unknown message id")
	ErrFrameTooLong   = errors.New("frame body too long")
)

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gometer/protocol"
)

func TestReadingMessageRoundTrip(t *testing.T) {
	in := Reading{
		Millicounts: -1234567,
		TimeMs:      0xFFFFFFF0,
		Unit:        UnitVolts,
		Exponent:    ExponentNano,
		Decimal:     Decimal100d00,
		Kind:        KindSub,
	}
	out := protocol.NewScratchOutput()
	EncodeReading(out, in)

	data := out.Result()
	got, err := DecodeReading(&data)
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Empty(t, data)
}

func TestDecodeReadingRejectsOtherMessages(t *testing.T) {
	data := protocol.EncodeVLQ(99)
	_, err := DecodeReading(&data)
	assert.ErrorIs(t, err, protocol.ErrUnknownMessage)

	data = protocol.EncodeVLQ(int32(protocol.MsgReading))
	_, err = DecodeReading(&data)
	assert.ErrorIs(t, err, protocol.ErrBufferTooSmall)
}

func TestReporterDropsWholeFrames(t *testing.T) {
	rp := NewReporter(protocol.MessageLengthMax)

	sent := 0
	for i := 0; i < 10; i++ {
		rp.PutReading(Reading{Millicounts: int32(i)})
	}
	assert.NotZero(t, rp.Dropped())

	dec := protocol.NewFrameDecoder()
	buf := make([]byte, 16)
	for {
		n := rp.Read(buf)
		if n == 0 {
			break
		}
		dec.Feed(buf[:n])
	}
	for {
		f, ok := dec.Next()
		if !ok {
			break
		}
		payload := f.Payload
		r, err := DecodeReading(&payload)
		require.NoError(t, err)
		assert.Equal(t, int32(sent), r.Millicounts)
		sent++
	}
	assert.Equal(t, 10, sent+int(rp.Dropped()))
	assert.Zero(t, dec.Errors(), "no frame is ever split")
	assert.Zero(t, rp.Pending())
}

package meter

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gometer/core"
	"gometer/protocol"
)

func frames(t *testing.T, readings ...core.Reading) []byte {
	t.Helper()
	rp := core.NewReporter(1024)
	for _, r := range readings {
		rp.PutReading(r)
	}
	buf := make([]byte, rp.Pending())
	require.Equal(t, len(buf), rp.Read(buf))
	return buf
}

func volts(counts int32) core.Reading {
	return core.Reading{
		Millicounts: counts * 1000,
		Unit:        core.UnitVolts,
		Decimal:     core.Decimal1d0000,
	}
}

func collect(m *Monitor) []core.Reading {
	var out []core.Reading
	for r := range m.Readings() {
		out = append(out, r)
	}
	return out
}

func TestMonitorDecodesStream(t *testing.T) {
	pr, pw := io.Pipe()
	m := New(pr)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	data := frames(t, volts(10000), volts(-2500), volts(7))
	go func() {
		// split mid-frame to exercise reassembly
		pw.Write(data[:5])
		pw.Write(data[5:])
		pw.Close()
	}()

	got := collect(m)
	require.NoError(t, <-done)
	require.Len(t, got, 3)
	assert.Equal(t, "1.0000", got[0].Format())
	assert.Equal(t, "-0.2500", got[1].Format())
	assert.Equal(t, core.UnitVolts, got[2].Unit)
	assert.Equal(t, Stats{Readings: 3}, m.Stats())
}

func TestMonitorSkipsCorruptFrames(t *testing.T) {
	pr, pw := io.Pipe()
	m := New(pr)
	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	bad := frames(t, volts(1))
	bad[3] ^= 0xFF
	good := frames(t, volts(2))
	go func() {
		pw.Write(append(bad, good...))
		pw.Close()
	}()

	got := collect(m)
	require.NoError(t, <-done)
	require.Len(t, got, 1)
	assert.Equal(t, int32(2), got[0].Counts())
	assert.NotZero(t, m.Stats().BadFrames)
}

func TestMonitorCountsUnknownMessages(t *testing.T) {
	out := protocol.NewScratchOutput()
	var enc protocol.FrameEncoder
	enc.EncodeFrame(out, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, 99)
	})

	pr, pw := io.Pipe()
	m := New(pr)
	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()
	go func() {
		pw.Write(out.Result())
		pw.Close()
	}()

	assert.Empty(t, collect(m))
	require.NoError(t, <-done)
	assert.Equal(t, uint32(1), m.Stats().Unknown)
}

func TestMonitorStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	m := New(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	_, open := <-m.Readings()
	assert.False(t, open)
}

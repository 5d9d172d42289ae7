package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLatchPublishesOnFlush(t *testing.T) {
	var l FrameLatch

	l.RenderReading(ScreenMain, Reading{Millicounts: 12345000, Unit: UnitVolts, Decimal: Decimal1d0000})
	l.RenderText(ScreenSub, "OVERLOAD")
	l.Flush()
	_, ok := l.Take()
	assert.False(t, ok, "nothing is latched without a queued update")

	l.QueueUpdate()
	l.Flush()
	frame, ok := l.Take()
	require.True(t, ok)
	assert.Equal(t, ScreenText{Text: "1.2345", Unit: "V"}, frame[ScreenMain])
	assert.Equal(t, ScreenText{Text: "OVERL"}, frame[ScreenSub])

	_, ok = l.Take()
	assert.False(t, ok, "a frame is taken once")
}

func TestFrameLatchKeepsNewestFrame(t *testing.T) {
	var l FrameLatch

	for _, text := range []string{"1", "2", "3"} {
		l.RenderText(ScreenMain, text)
		l.QueueUpdate()
		l.Flush()
	}
	// rendering after the flush is not visible until the next one
	l.RenderText(ScreenMain, "4")

	frame, ok := l.Take()
	require.True(t, ok)
	assert.Equal(t, "3", frame[ScreenMain].Text)
}

func TestTimerJobOnlyLatchesSlowDisplay(t *testing.T) {
	sched := NewScheduler()
	sched.Init()
	var l FrameLatch
	timer := NewTimer(sched, nil, &l)
	sched.Attach(Job10msTimer, timer.HandleJob)
	timer.Init()
	sched.Enable(Job10msTimer)

	l.RenderText(ScreenMain, "OFF")
	l.QueueUpdate()
	timer.Tick10ms()
	sched.RestoreInterrupts(sched.DisableInterrupts())

	frame, ok := l.Take()
	require.True(t, ok)
	assert.Equal(t, "OFF", frame[ScreenMain].Text)
	assert.Equal(t, uint32(1), timer.Ticks10ms())
}

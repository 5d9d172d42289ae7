package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	s := NewScheduler()
	s.Init()
	for j := Job(0); j < numJobs; j++ {
		s.Enable(j)
	}
	return s
}

func TestInitDisablesEverything(t *testing.T) {
	s := NewScheduler()
	s.Enable(JobSystem)
	s.Init()

	for j := Job(0); j < numJobs; j++ {
		assert.False(t, s.Enabled(j), j.String())
	}
	assert.Equal(t, Priority10msTimer, s.Priority(Job10msTimer))
	assert.Equal(t, PriorityAcquisition, s.Priority(JobAcquisition))
	assert.Equal(t, PriorityMeasurement, s.Priority(JobMeasurement))
	assert.Equal(t, PrioritySystem, s.Priority(JobSystem))
	assert.Less(t, PrioritySysTick, Priority10msTimer)
}

func TestMoreUrgentJobPreempts(t *testing.T) {
	s := newTestScheduler()
	var order []string

	s.Attach(JobMeasurement, func() {
		order = append(order, "meas:start")
		s.Schedule(JobSystem)
		s.Schedule(JobAcquisition)
		order = append(order, "meas:end")
	})
	s.Attach(JobAcquisition, func() {
		assert.Equal(t, PriorityAcquisition, s.Level())
		order = append(order, "acq")
	})
	s.Attach(JobSystem, func() { order = append(order, "sys") })

	s.Schedule(JobMeasurement)

	assert.Equal(t, []string{"meas:start", "acq", "meas:end", "sys"}, order)
	assert.Equal(t, priorityIdle, s.Level())
}

func TestPendingJobsRunMostUrgentFirst(t *testing.T) {
	s := newTestScheduler()
	var order []Job
	for j := Job(0); j < numJobs; j++ {
		j := j
		s.Attach(j, func() { order = append(order, j) })
	}

	state := s.DisableInterrupts()
	s.Schedule(JobSystem)
	s.Schedule(JobMeasurement)
	s.Schedule(Job10msTimer)
	s.Schedule(JobAcquisition)
	assert.Empty(t, order, "nothing runs inside a critical section")
	s.RestoreInterrupts(state)

	assert.Equal(t, []Job{Job10msTimer, JobAcquisition, JobMeasurement, JobSystem}, order)
}

func TestLessUrgentJobWaitsForRunningJob(t *testing.T) {
	s := newTestScheduler()
	var order []string

	s.Attach(JobAcquisition, func() {
		s.Schedule(JobMeasurement)
		order = append(order, "acq:end")
	})
	s.Attach(JobMeasurement, func() { order = append(order, "meas") })

	s.Schedule(JobAcquisition)
	assert.Equal(t, []string{"acq:end", "meas"}, order)
}

func TestScheduleIsIdempotent(t *testing.T) {
	s := newTestScheduler()
	count := 0
	s.Attach(JobMeasurement, func() { count++ })

	state := s.DisableInterrupts()
	for i := 0; i < 5; i++ {
		s.Schedule(JobMeasurement)
	}
	s.RestoreInterrupts(state)

	assert.Equal(t, 1, count)
	assert.False(t, s.Pending(JobMeasurement))

	s.Schedule(JobMeasurement)
	assert.Equal(t, 2, count)
}

func TestEnableDiscardsBacklog(t *testing.T) {
	s := newTestScheduler()
	count := 0
	s.Attach(JobAcquisition, func() { count++ })

	s.Disable(JobAcquisition)
	s.Schedule(JobAcquisition)
	require.True(t, s.Pending(JobAcquisition))

	s.Enable(JobAcquisition)
	assert.False(t, s.Pending(JobAcquisition))
	assert.Zero(t, count)
}

func TestResumeKeepsBacklog(t *testing.T) {
	s := newTestScheduler()
	count := 0
	s.Attach(JobAcquisition, func() { count++ })

	was := s.Disable(JobAcquisition)
	require.True(t, was)
	s.Schedule(JobAcquisition)
	assert.Zero(t, count)

	s.Resume(JobAcquisition, was)
	assert.Equal(t, 1, count)
	assert.False(t, s.Pending(JobAcquisition))
}

func TestResumeFalseIsNoop(t *testing.T) {
	s := newTestScheduler()
	count := 0
	s.Attach(JobSystem, func() { count++ })

	s.Disable(JobSystem)
	was := s.Disable(JobSystem)
	assert.False(t, was)

	s.Schedule(JobSystem)
	s.Resume(JobSystem, was)
	assert.False(t, s.Enabled(JobSystem))
	assert.Zero(t, count)
}

func TestCriticalSectionsNest(t *testing.T) {
	s := newTestScheduler()
	count := 0
	s.Attach(JobSystem, func() { count++ })

	outer := s.DisableInterrupts()
	inner := s.DisableInterrupts()
	s.Schedule(JobSystem)
	s.RestoreInterrupts(inner)
	assert.Zero(t, count, "still inside the outer section")
	s.RestoreInterrupts(outer)
	assert.Equal(t, 1, count)
}

func TestUnknownJobIgnored(t *testing.T) {
	s := newTestScheduler()
	s.Schedule(numJobs)
	s.Interrupt(numJobs)
	assert.False(t, s.Disable(numJobs))
	assert.False(t, s.Pending(numJobs))
	assert.Equal(t, "job?", numJobs.String())
}

func TestRunDispatchesInterrupts(t *testing.T) {
	s := newTestScheduler()
	ran := make(chan Job, 4)
	s.Attach(JobAcquisition, func() { ran <- JobAcquisition })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	go s.Interrupt(JobAcquisition)

	select {
	case j := <-ran:
		assert.Equal(t, JobAcquisition, j)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt was never dispatched")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDispatchIsTraced(t *testing.T) {
	s := newTestScheduler()
	ring := NewTraceRing(func() uint32 { return 42 })
	s.SetTrace(ring)
	s.Attach(JobSystem, func() {})

	s.Schedule(JobSystem)

	events := ring.Events()
	require.Len(t, events, 1)
	assert.Equal(t, uint8(TraceJobRun), events[0].EventType)
	assert.Equal(t, uint8(JobSystem), events[0].ID)
	assert.Equal(t, uint32(42), events[0].Clock)
	assert.Equal(t, uint32(priorityIdle), events[0].Value1)
	assert.Equal(t, uint32(PrioritySystem), events[0].Value2)
}

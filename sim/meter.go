package sim

import (
	"context"
	"sync"
	"time"

	"gometer/core"
)

// DefaultSamplePeriod is how often the simulated chip finishes an AD1
// conversion.
const DefaultSamplePeriod = 5 * time.Millisecond

// Meter is a complete simulated instrument: firmware plus hardware models.
type Meter struct {
	Chip     *Chip
	Power    *Power
	Buttons  *Buttons
	Display  *Display
	Source   *Source
	Firmware *core.Firmware
}

// NewMeter builds the hardware models and the firmware that drives them.
func NewMeter(cfg core.Config) *Meter {
	m := &Meter{
		Chip:    NewChip(),
		Buttons: NewButtons(),
		Display: NewDisplay(),
		Source:  NewSource(1),
	}
	m.Power = NewPower(m.Chip)
	m.Firmware = core.New(cfg, core.HAL{
		Chip:    m.Chip,
		IRQ:     m.Chip,
		Power:   m.Power,
		Buttons: m.Buttons,
		Display: m.Display,
	})
	m.Chip.OnEdge(m.Firmware.Chip.IRQEdge)
	return m
}

// RunOptions controls the simulated clocks.
type RunOptions struct {
	// SamplePeriod is the conversion period; zero means DefaultSamplePeriod.
	SamplePeriod time.Duration
}

// Run boots the firmware and runs it until ctx is done. The tick sources
// and the converter run on their own goroutines and only raise interrupts;
// every job runs on the calling goroutine. The firmware is shut down
// before Run returns.
func (m *Meter) Run(ctx context.Context, opts RunOptions) error {
	if opts.SamplePeriod <= 0 {
		opts.SamplePeriod = DefaultSamplePeriod
	}

	m.Firmware.Boot()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.tick(ctx)
	}()
	go func() {
		defer wg.Done()
		m.convert(ctx, opts.SamplePeriod)
	}()

	err := m.Firmware.Run(ctx)
	cancel()
	wg.Wait()

	m.Firmware.Shutdown()
	return err
}

// tick drives SysTick and the 10ms timer.
func (m *Meter) tick(ctx context.Context) {
	t := time.NewTicker(time.Millisecond)
	defer t.Stop()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Firmware.Timer.Tick1ms()
			if n++; n == 10 {
				n = 0
				m.Firmware.Timer.Tick10ms()
			}
		}
	}
}

func (m *Meter) convert(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Chip.Convert(core.HYIntAD1, m.Source.Raw())
		}
	}
}

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"gometer/core"
	"gometer/host/config"
	"gometer/host/logger"
	"gometer/host/meter"
	"gometer/host/serial"
	"gometer/sim"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(os.Stderr, cfg.Debug, cfg.Verbose)
	core.SetDebugWriter(logger.CoreWriter())

	selector, err := cfg.SelectorButton()
	if err != nil {
		logger.Fatal().Err(err).Msg("Bad selector")
	}

	m := sim.NewMeter(cfg.Firmware())
	m.Buttons.Select(selector)
	m.Source.Set(cfg.Volts, cfg.Noise)

	var shown string
	m.Display.OnFlush(func(main, _ sim.Screen) {
		if main.Text != shown {
			shown = main.Text
			logger.Info().Str("screen", main.Text).Msg("display")
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := reportSink(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open report output")
	}
	defer out.Close()
	go drain(ctx, m.Firmware.Reporter, out)

	logger.Info().
		Str("selector", selector.String()).
		Float64("volts", cfg.Volts).
		Dur("sample_period", cfg.SamplePeriod).
		Msg("Simulating")

	err = m.Run(ctx, sim.RunOptions{SamplePeriod: cfg.SamplePeriod})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Simulation failed")
	}
	logger.Info().
		Uint32("chip_errors", m.Firmware.Chip.Errors()).
		Uint32("queue_drops", m.Firmware.Queue.Dropped()).
		Uint32("report_drops", m.Firmware.Reporter.Dropped()).
		Msg("Stopped")
}

// reportSink returns where the report stream goes: the configured serial
// port, or an in-process monitor that logs what it decodes.
func reportSink(ctx context.Context, cfg *config.Config) (io.WriteCloser, error) {
	if cfg.Output != "" {
		port, err := serial.Open(cfg.Serial(cfg.Output))
		if err != nil {
			return nil, err
		}
		return port, nil
	}

	pr, pw := io.Pipe()
	mon := meter.New(pr)
	go func() {
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Monitor failed")
		}
	}()
	go func() {
		for r := range mon.Readings() {
			logger.Log().Reading(r).Msg("reading")
		}
	}()
	return pw, nil
}

// drain copies the report FIFO to w, the way the target's idle loop feeds
// its UART.
func drain(ctx context.Context, rp *core.Reporter, w io.Writer) {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		for {
			n := rp.Read(buf)
			if n == 0 {
				break
			}
			if _, err := w.Write(buf[:n]); err != nil {
				logger.Error().Err(err).Msg("Report write failed")
				return
			}
		}
	}
}

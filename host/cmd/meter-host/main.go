package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"gometer/core"
	"gometer/host/config"
	"gometer/host/logger"
	"gometer/host/meter"
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

	mon, err := meter.Open(cfg.Serial(cfg.Device))
	if err != nil {
		logger.Fatal().Err(err).Str("device", cfg.Device).Msg("Failed to open meter")
	}
	logger.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Msg("Connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	for r := range mon.Readings() {
		logger.Log().Reading(r).Msg("reading")
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Report stream failed")
	}
	st := mon.Stats()
	logger.Info().
		Uint32("readings", st.Readings).
		Uint32("lost", st.Lost).
		Uint32("bad_frames", st.BadFrames).
		Uint32("unknown", st.Unknown).
		Msg("Disconnected")
}

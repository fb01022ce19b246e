package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	snowcam "camwatch/agents/snow-cam"
	"camwatch/shared/config"
	"camwatch/shared/scheduler"
)

func main() {
	debug := flag.Bool("debug", false, "print verbose diagnostics")
	daemon := flag.Bool("daemon", false, "keep running and check on the configured schedule")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		newLogger(*debug).Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := newLogger(*debug || cfg.Debug)

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := snowcam.NewSnowCamAgent(cfg, logger)
	s := scheduler.New(cfg, agent, logger)

	if *daemon {
		logger.Info("starting scheduler")
		if err := s.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduler failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := agent.Initialize(); err != nil {
		logger.Error("failed to initialize agent", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := s.RunOnce(ctx); err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger prints diagnostics only in debug mode; otherwise a failed run is
// visible through the exit status alone
func newLogger(debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

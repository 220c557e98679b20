package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/config"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/logging"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(start(ctx, cfg, logger))
}

func start(ctx context.Context, cfg config.Config, logger zerolog.Logger) int {
	errg, ctx := errgroup.WithContext(ctx)

	svc := app.NewService(
		app.WithLogger(logger.With().Str("component", "service").Logger()),
		app.WithAIDelay(cfg.AIDelay),
		app.WithExpiry(cfg.GameExpiry, cfg.SweepInterval),
		app.WithSeed(cfg.Seed),
	)
	errg.Go(func() error { return svc.Start(ctx) })

	handler := web.NewServer(svc,
		web.WithLogger(logger.With().Str("component", "http").Logger()),
		web.WithHeartbeat(cfg.Heartbeat),
	)

	errg.Go(func() error {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Stringer("ai_delay", cfg.AIDelay).
			Msg("listening via HTTP")

		if err := hserve.ListenAndServe(ctx, cfg.ListenAddr, handler); err != nil {
			logger.Error().Err(err).Msg("failed to listen and serve")
			return err
		}

		return ctx.Err()
	})

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("service error")
		return 1
	}

	logger.Info().Msg("shut down")
	return 0
}

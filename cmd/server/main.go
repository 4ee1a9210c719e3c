package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/skyloft/kitedrift/internal/config"
	"github.com/skyloft/kitedrift/internal/database"
	"github.com/skyloft/kitedrift/internal/game"
	"github.com/skyloft/kitedrift/internal/migrations"
	"github.com/skyloft/kitedrift/internal/server"
	"github.com/skyloft/kitedrift/internal/store"
	"github.com/skyloft/kitedrift/internal/wind"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	st := store.NewSQLite(db)
	if err := store.Seed(ctx, logger, st); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	// --- Wind + engine ---
	windSvc := wind.NewService(
		wind.NewCache(),
		wind.NewOpenWeather(cfg.WindBaseURL, cfg.WindAPIKey),
		logger,
	)
	gw := server.NewGateway()
	eng := game.NewEngine(st, windSvc, gw, logger, cfg.TickInterval)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, eng, gw, st, windSvc, db, cfg.SPADir)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"thermite-server/internal/game"
)

const shutdownWait = 10 * time.Second

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// run serves one match and returns when it ends or a signal arrives
func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := LoadMapLibrary(cfg.MapDir)
	if err != nil {
		return err
	}
	tmpl, grid, err := lib.Generate(cfg.MapID, cfg.Seed)
	if err != nil {
		return err
	}

	outbox, err := OpenOutbox(cfg, logger)
	if err != nil {
		return fmt.Errorf("outbox: %w", err)
	}
	defer outbox.Close()
	pub := NewPublisher(outbox, logger)
	defer pub.Stop()

	match := game.NewMatch(uuid.New(), grid, cfg.Match)
	coord := NewCoordinator(match, tmpl.Name, tmpl.SpawnPoints, pub, logger)
	hub := NewHub()

	var events eventReader
	if r, ok := outbox.(eventReader); ok {
		events = r
	}
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: SetupRoutes(hub, coord, events, cfg.PublicURL, logger),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// the process lives for exactly one match
		defer cancel()
		return coord.Run(gctx)
	})
	g.Go(func() error {
		// connections outlive the coordinator so its final broadcast is delivered
		hub.Run(coord.Done())
		return nil
	})
	g.Go(func() error {
		logger.InfoContext(gctx, "server starting",
			"addr", cfg.Addr,
			"match_id", match.ID(),
			"map", tmpl.Name,
			"tick_ms", cfg.Match.TickRateMs,
			"outbox", cfg.DBType)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, scancel := context.WithTimeout(context.Background(), shutdownWait)
		defer scancel()
		return server.Shutdown(sctx)
	})

	return g.Wait()
}

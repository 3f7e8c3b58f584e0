// Package main provides the entry point for the tally-sync job.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pascomapp/tally-sync/internal/config"
	"github.com/pascomapp/tally-sync/internal/logger"
	"github.com/pascomapp/tally-sync/internal/sheets"
	"github.com/pascomapp/tally-sync/internal/store"
	"github.com/pascomapp/tally-sync/internal/tabulate"
	"github.com/pascomapp/tally-sync/internal/updater"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})

	client := sheets.NewClient(cfg.Sheet.FetchTimeout, log.Logger)
	st := store.New(cfg.Tally.DataPath, log.Logger)
	u := updater.New(client, st, updater.Options{
		SheetID:  cfg.Sheet.ID,
		GID:      cfg.Sheet.GID,
		Detector: tabulate.NewKeywordDetector(cfg.Tally.CategoryKeywords...),
	}, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Shutting down...")
		cancel()
	}()

	// One-shot mode. Soft skips exit 0; only a failed persist is fatal.
	if cfg.App.Interval <= 0 {
		if _, err := u.Run(ctx); err != nil {
			log.Fatal("Sync failed", "error", err)
		}
		return
	}

	log.Info("Sync loop started",
		"interval", cfg.App.Interval,
		"data_path", cfg.Tally.DataPath,
	)
	runLoop(ctx, u, cfg.App.Interval, log)
}

// runLoop syncs on a fixed interval until the context is cancelled.
// Runs never overlap: a slow fetch delays the next tick.
func runLoop(ctx context.Context, u *updater.Updater, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial sync on startup.
	if _, err := u.Run(ctx); err != nil {
		log.Error("Sync failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := u.Run(ctx); err != nil {
				log.Error("Sync failed", "error", err)
			}
		case <-ctx.Done():
			log.Info("Sync loop stopped")
			return
		}
	}
}

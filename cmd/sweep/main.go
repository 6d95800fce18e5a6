// Command sweep runs a single sweep pass and exits. Useful for operators
// who want to prune expired pending records outside the server's schedule.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/acm-sigapp/club-backend/config"
	"github.com/acm-sigapp/club-backend/internal/infrastructure/sheets"
	"github.com/acm-sigapp/club-backend/internal/metrics"
	"github.com/acm-sigapp/club-backend/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := sheets.New(ctx, []byte(cfg.GoogleCredentials), cfg.SheetID, cfg.SheetName)
	if err != nil {
		log.Fatalf("record store: %v", err)
	}

	metrics.Register()

	sw, err := sweeper.New(store, logger, cfg.SweepSpec)
	if err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	if err := sw.RunOnce(ctx); err != nil {
		log.Fatalf("sweep: %v", err)
	}
	logger.Info("sweep complete")
}

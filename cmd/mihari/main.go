package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashita-ai/mihari"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("MIHARI_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	app, err := mihari.New(
		mihari.WithLogger(logger),
		mihari.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	// Stream alert notifications to stdout for dashboard consumers reading
	// the process output.
	sub := app.SubscribeDashboard()
	defer app.UnsubscribeDashboard(sub)
	go func() {
		for payload := range sub {
			fmt.Println(string(payload))
		}
	}()

	// Periodic health summary.
	go statusLoop(ctx, app, logger)

	return app.Run(ctx)
}

func statusLoop(ctx context.Context, app *mihari.App, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := app.QualityStatus()
			stats := app.AlertStats()
			logger.Info("pipeline status",
				"quality", status.Overall,
				"scored", status.StoredCount,
				"active_sessions", app.ActiveSessionCount(),
				"active_alerts", stats.ActiveAlerts,
				"total_alerts", stats.TotalAlerts,
			)
		}
	}
}

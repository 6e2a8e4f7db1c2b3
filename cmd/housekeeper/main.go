// Command housekeeper runs a single housekeeping pass (reconcile, expire,
// purge, session cleanup, health summary) and exits. It is intended to be
// invoked by an external cron job when the in-process scheduler is disabled.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/opsboard/backend/internal/adapter/postgres"
	"github.com/opsboard/backend/internal/adapter/postgres/audit"
	"github.com/opsboard/backend/internal/adapter/postgres/feed"
	"github.com/opsboard/backend/internal/adapter/postgres/notification"
	"github.com/opsboard/backend/internal/adapter/postgres/session"
	"github.com/opsboard/backend/internal/app"
	"github.com/opsboard/backend/internal/config"
	"github.com/opsboard/backend/internal/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := engine.NewService(
		logger,
		notification.New(pool),
		audit.New(pool),
		feed.New(pool),
		session.New(pool),
		postgres.NewTxManager(pool),
		cfg.Notifications,
		nil,
	)

	failed := 0
	for _, stage := range app.HousekeepingStages(logger, svc) {
		if err := stage.Run(ctx); err != nil {
			failed++
			logger.Error("housekeeping stage failed",
				slog.String("stage", stage.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}

	logger.Info("housekeeping pass completed")
}

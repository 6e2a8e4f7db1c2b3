package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/opsboard/backend/internal/adapter/postgres"
	"github.com/opsboard/backend/internal/adapter/postgres/audit"
	"github.com/opsboard/backend/internal/adapter/postgres/feed"
	"github.com/opsboard/backend/internal/adapter/postgres/notification"
	"github.com/opsboard/backend/internal/adapter/postgres/session"
	"github.com/opsboard/backend/internal/config"
	"github.com/opsboard/backend/internal/engine"
	"github.com/opsboard/backend/internal/listener"
	"github.com/opsboard/backend/internal/scheduler"
)

// Run is the application entry point. It loads configuration, wires the
// engine to its adapters, and runs the housekeeping scheduler, the feed
// listener, and the HTTP server until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close() //nolint:errcheck

	// The listener reconnects on its own, and reconciliation covers any
	// events missed in the meantime, so a dead redis is not fatal here.
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", slog.String("error", err.Error()))
	}

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

	housekeeper := scheduler.New(logger, cfg.Notifications.TickInterval, HousekeepingStages(logger, svc)...)
	feedListener := listener.New(logger, rdb, cfg.Redis.ChannelPrefix, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(logger, svc, housekeeper, pool),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Background workers get their own context so the HTTP server can drain
	// before they are told to stop.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = housekeeper.Run(workerCtx)
	}()
	go func() {
		defer wg.Done()
		_ = feedListener.Run(workerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		stopWorkers()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.String("error", err.Error()))
	}

	stopWorkers()
	wg.Wait()

	logger.Info("application stopped")
	return nil
}

// HousekeepingStages builds the housekeeping pipeline in its required order:
// recover orphans first so the same pass can expire and purge them, clean up
// sessions, then log store totals as a health summary.
func HousekeepingStages(logger *slog.Logger, svc *engine.Service) []scheduler.Stage {
	return []scheduler.Stage{
		{
			Name: "reconcile",
			Run: func(ctx context.Context) error {
				_, err := svc.Reconcile(ctx)
				return err
			},
		},
		{
			Name: "expire",
			Run: func(ctx context.Context) error {
				_, err := svc.ExpireDue(ctx)
				return err
			},
		},
		{
			Name: "purge",
			Run: func(ctx context.Context) error {
				_, err := svc.PurgeResolved(ctx)
				return err
			},
		},
		{
			Name: "session-cleanup",
			Run: func(ctx context.Context) error {
				_, err := svc.CleanupSessions(ctx)
				return err
			},
		},
		{
			Name: "health-summary",
			Run: func(ctx context.Context) error {
				counts, err := svc.CountByStatus(ctx)
				if err != nil {
					return err
				}
				logger.InfoContext(ctx, "notification store totals",
					slog.Int("pending", counts.Pending),
					slog.Int("handled", counts.Handled),
					slog.Int("dismissed", counts.Dismissed),
				)
				return nil
			},
		},
	}
}

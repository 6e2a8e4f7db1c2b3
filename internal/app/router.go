package app

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsboard/backend/internal/engine"
	"github.com/opsboard/backend/internal/scheduler"
	"github.com/opsboard/backend/internal/transport/middleware"
	"github.com/opsboard/backend/internal/transport/rest"
)

// newRouter assembles the HTTP routes and the middleware chain.
func newRouter(logger *slog.Logger, svc *engine.Service, housekeeper *scheduler.Scheduler, pool *pgxpool.Pool) http.Handler {
	mux := http.NewServeMux()

	health := rest.NewHealthHandler(pool, BuildVersion())
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)

	notifications := rest.NewNotificationHandler(svc, logger)
	mux.HandleFunc("GET /api/v1/notifications", notifications.List)
	mux.HandleFunc("POST /api/v1/notifications/handle", notifications.Handle)
	mux.HandleFunc("POST /api/v1/notifications/dismiss", notifications.Dismiss)
	mux.HandleFunc("GET /api/v1/notifications/audit", notifications.AuditTrail)
	mux.HandleFunc("GET /api/v1/notifications/counts", notifications.Counts)

	admin := rest.NewAdminHandler(housekeeper, logger)
	mux.HandleFunc("POST /api/v1/admin/housekeeping/run", admin.RunHousekeeping)

	chain := middleware.Chain(
		middleware.RequestID(),
		middleware.Actor(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	)

	return chain(mux)
}

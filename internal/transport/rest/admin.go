package rest

import (
	"log/slog"
	"net/http"
)

// housekeepingTrigger requests an out-of-schedule housekeeping pass.
type housekeepingTrigger interface {
	TriggerNow()
}

// AdminHandler serves operational endpoints for the dashboard operators.
type AdminHandler struct {
	housekeeping housekeepingTrigger
	log          *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(housekeeping housekeepingTrigger, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		housekeeping: housekeeping,
		log:          logger.With("handler", "admin"),
	}
}

// RunHousekeeping requests a housekeeping pass outside the regular schedule.
// POST /api/v1/admin/housekeeping/run
//
// The pass runs asynchronously; 202 only acknowledges the request.
func (h *AdminHandler) RunHousekeeping(w http.ResponseWriter, r *http.Request) {
	h.housekeeping.TriggerNow()
	h.log.InfoContext(r.Context(), "housekeeping pass requested")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

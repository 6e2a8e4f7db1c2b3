package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/opsboard/backend/internal/domain"
)

// notificationService defines the minimal interface needed by NotificationHandler.
type notificationService interface {
	ListPending(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error)
	Get(ctx context.Context, key domain.Key) (domain.NotificationState, error)
	Handle(ctx context.Context, key domain.Key) (domain.NotificationState, error)
	Dismiss(ctx context.Context, key domain.Key) (domain.NotificationState, error)
	AuditTrail(ctx context.Context, key domain.Key, limit int) ([]domain.AuditEntry, error)
	CountByStatus(ctx context.Context) (domain.StatusCounts, error)
}

// NotificationHandler serves the dashboard notification endpoints.
type NotificationHandler struct {
	svc notificationService
	log *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(svc notificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: logger.With("handler", "notifications")}
}

// keyRequest is the dedup key as the dashboard sends it. EventType defaults
// to INSERT when omitted.
type keyRequest struct {
	SourceFeed    string `json:"source_feed"`
	TransactionID string `json:"transaction_id"`
	EventType     string `json:"event_type"`
}

func (r keyRequest) toKey() domain.Key {
	eventType := domain.EventType(r.EventType)
	if r.EventType == "" {
		eventType = domain.EventTypeInsert
	}
	return domain.Key{
		SourceFeed:    domain.SourceFeed(r.SourceFeed),
		TransactionID: r.TransactionID,
		EventType:     eventType,
	}
}

type notificationResponse struct {
	ID              string          `json:"id"`
	SourceFeed      string          `json:"source_feed"`
	TransactionID   string          `json:"transaction_id"`
	EventType       string          `json:"event_type"`
	PayloadSnapshot json.RawMessage `json:"payload_snapshot"`
	IsHandled       bool            `json:"is_handled"`
	IsDismissed     bool            `json:"is_dismissed"`
	Priority        string          `json:"priority"`
	RequiresAction  bool            `json:"requires_action"`
	CreatedAt       string          `json:"created_at"`
	ExpiresAt       string          `json:"expires_at"`
	HandledAt       *string         `json:"handled_at,omitempty"`
	HandledBy       *string         `json:"handled_by,omitempty"`
}

type listResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	Count         int                    `json:"count"`
}

type auditEntryResponse struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	CreatedAt string `json:"created_at"`
}

type auditTrailResponse struct {
	SourceFeed    string               `json:"source_feed"`
	TransactionID string               `json:"transaction_id"`
	EventType     string               `json:"event_type"`
	Entries       []auditEntryResponse `json:"entries"`
}

// List handles GET /api/v1/notifications.
// Optional query parameters: feed (PURCHASE|SALE), limit.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter domain.PendingFilter

	if raw := r.URL.Query().Get("feed"); raw != "" {
		feed := domain.SourceFeed(raw)
		filter.Feed = &feed
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	states, err := h.svc.ListPending(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := listResponse{
		Notifications: make([]notificationResponse, 0, len(states)),
		Count:         len(states),
	}
	for _, s := range states {
		resp.Notifications = append(resp.Notifications, toNotificationResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Handle handles POST /api/v1/notifications/handle. Resolving a notification
// that is already terminal returns 200 with the winning state unchanged.
func (h *NotificationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Handle)
}

// Dismiss handles POST /api/v1/notifications/dismiss.
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Dismiss)
}

func (h *NotificationHandler) resolve(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Key) (domain.NotificationState, error)) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := fn(r.Context(), req.toKey())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toNotificationResponse(state))
}

// AuditTrail handles GET /api/v1/notifications/audit.
// Query parameters: source_feed, transaction_id, event_type (optional), limit.
func (h *NotificationHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := keyRequest{
		SourceFeed:    q.Get("source_feed"),
		TransactionID: q.Get("transaction_id"),
		EventType:     q.Get("event_type"),
	}.toKey()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := h.svc.AuditTrail(r.Context(), key, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := auditTrailResponse{
		SourceFeed:    key.SourceFeed.String(),
		TransactionID: key.TransactionID,
		EventType:     key.EventType.String(),
		Entries:       make([]auditEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, auditEntryResponse{
			ID:        e.ID.String(),
			Action:    e.Action.String(),
			CreatedAt: e.CreatedAt.Format(timeFormat),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Counts handles GET /api/v1/notifications/counts.
func (h *NotificationHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.CountByStatus(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *NotificationHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func toNotificationResponse(s domain.NotificationState) notificationResponse {
	resp := notificationResponse{
		ID:              s.ID.String(),
		SourceFeed:      s.Key.SourceFeed.String(),
		TransactionID:   s.Key.TransactionID,
		EventType:       s.Key.EventType.String(),
		PayloadSnapshot: s.PayloadSnapshot,
		IsHandled:       s.IsHandled,
		IsDismissed:     s.IsDismissed,
		Priority:        s.Priority.String(),
		RequiresAction:  s.RequiresAction,
		CreatedAt:       s.CreatedAt.Format(timeFormat),
		ExpiresAt:       s.ExpiresAt.Format(timeFormat),
	}
	if s.HandledAt != nil {
		v := s.HandledAt.Format(timeFormat)
		resp.HandledAt = &v
	}
	resp.HandledBy = s.HandledBy
	return resp
}

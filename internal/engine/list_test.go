package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opsboard/backend/internal/domain"
)

func TestListPending_ClampsLimitAndTouchesSession(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t)

	m.notifications.ListPendingFunc = func(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error) {
		if filter.Limit != 200 {
			t.Errorf("expected limit clamped to 200, got %d", filter.Limit)
		}
		return []domain.NotificationState{pendingState(domain.SourceFeedPurchase, "tx-1", time.Hour)}, nil
	}
	m.sessions.TouchFunc = func(ctx context.Context, actor string, at time.Time) error { return nil }

	states, err := svc.ListPending(actorCtx("viewer"), domain.PendingFilter{Limit: 100000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}

	touches := m.sessions.TouchCalls()
	if len(touches) != 1 || touches[0] != "viewer" {
		t.Fatalf("expected session touch for viewer, got %+v", touches)
	}
}

func TestListPending_SessionFailureDoesNotFailRead(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t)

	m.notifications.ListPendingFunc = func(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error) {
		return []domain.NotificationState{}, nil
	}
	m.sessions.TouchFunc = func(ctx context.Context, actor string, at time.Time) error {
		return errors.New("sessions table locked")
	}

	if _, err := svc.ListPending(actorCtx("viewer"), domain.PendingFilter{}); err != nil {
		t.Fatalf("session failure must not fail the read, got: %v", err)
	}
}

func TestListPending_NoActorNoTouch(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t)

	m.notifications.ListPendingFunc = func(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error) {
		return []domain.NotificationState{}, nil
	}

	if _, err := svc.ListPending(context.Background(), domain.PendingFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(m.sessions.TouchCalls()); got != 0 {
		t.Errorf("expected 0 touches without actor, got %d", got)
	}
}

func TestListPending_InvalidFeed(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	bad := domain.SourceFeed("REFUND")
	_, err := svc.ListPending(context.Background(), domain.PendingFilter{Feed: &bad})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}
}

func TestGet_ValidatesKey(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), domain.Key{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty key, got: %v", err)
	}
}

func TestAuditTrail_DefaultLimit(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t)
	key := domain.NewKey(domain.SourceFeedSale, "tx-trail")

	m.audit.ListByKeyFunc = func(ctx context.Context, k domain.Key, limit int) ([]domain.AuditEntry, error) {
		if limit != defaultAuditTrailLimit {
			t.Errorf("expected default limit %d, got %d", defaultAuditTrailLimit, limit)
		}
		return []domain.AuditEntry{}, nil
	}

	if _, err := svc.AuditTrail(context.Background(), key, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t)

	m.notifications.CountByStatusFunc = func(ctx context.Context) (domain.StatusCounts, error) {
		return domain.StatusCounts{Pending: 4, Handled: 2, Dismissed: 1}, nil
	}

	counts, err := svc.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Pending != 4 || counts.Handled != 2 || counts.Dismissed != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

package engine

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/backend/internal/config"
	"github.com/opsboard/backend/internal/domain"
)

// fixedNow is the injected clock for every engine test.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testConfig() config.NotificationsConfig {
	return config.NotificationsConfig{
		RecoveryWindow:   2 * time.Hour,
		TTL:              24 * time.Hour,
		HandledRetention: time.Hour,
		TickInterval:     time.Hour,
		SessionRetention: 168 * time.Hour,
		PendingListLimit: 200,
	}
}

type testMocks struct {
	notifications *notificationRepoMock
	audit         *auditRepoMock
	feeds         *feedRepoMock
	sessions      *sessionRepoMock
	tx            *txManagerMock
}

// newTestService creates a Service wired to fresh mocks and a fixed clock.
func newTestService(t *testing.T) (*Service, *testMocks) {
	t.Helper()

	m := &testMocks{
		notifications: &notificationRepoMock{},
		audit:         &auditRepoMock{},
		feeds:         &feedRepoMock{},
		sessions:      &sessionRepoMock{},
		tx:            &txManagerMock{},
	}

	svc := NewService(
		slog.Default(),
		m.notifications,
		m.audit,
		m.feeds,
		m.sessions,
		m.tx,
		testConfig(),
		func() time.Time { return fixedNow },
	)

	return svc, m
}

// pendingState builds a pending notification for a transaction created at
// the given offset before fixedNow.
func pendingState(feed domain.SourceFeed, txID string, age time.Duration) domain.NotificationState {
	createdAt := fixedNow.Add(-age)
	return domain.NotificationState{
		ID:              uuid.New(),
		Key:             domain.NewKey(feed, txID),
		PayloadSnapshot: json.RawMessage(`{"amount": 100}`),
		Priority:        domain.PriorityNormal,
		RequiresAction:  true,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(24 * time.Hour),
	}
}

func TestNewService_DefaultClock(t *testing.T) {
	t.Parallel()

	svc := NewService(slog.Default(), &notificationRepoMock{}, &auditRepoMock{},
		&feedRepoMock{}, &sessionRepoMock{}, &txManagerMock{}, testConfig(), nil)

	if svc.now == nil {
		t.Fatal("expected nil clock to fall back to time.Now")
	}
	if svc.now().IsZero() {
		t.Fatal("expected default clock to return a real time")
	}
}

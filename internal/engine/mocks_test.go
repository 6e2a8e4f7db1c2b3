package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/backend/internal/domain"
)

var _ notificationRepo = &notificationRepoMock{}

type notificationRepoMock struct {
	UpsertIfAbsentFunc     func(ctx context.Context, n domain.NotificationState) (domain.NotificationState, bool, error)
	GetFunc                func(ctx context.Context, key domain.Key) (domain.NotificationState, error)
	ListPendingFunc        func(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error)
	ListDueForExpiryFunc   func(ctx context.Context, now time.Time, limit int) ([]domain.NotificationState, error)
	ListResolvedBeforeFunc func(ctx context.Context, cutoff time.Time, limit int) ([]domain.NotificationState, error)
	MarkResolvedFunc       func(ctx context.Context, key domain.Key, p domain.ResolveParams) (domain.NotificationState, error)
	DeleteByIDsFunc        func(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountByStatusFunc      func(ctx context.Context) (domain.StatusCounts, error)

	mu    sync.Mutex
	calls struct {
		UpsertIfAbsent []domain.NotificationState
		MarkResolved   []struct {
			Key    domain.Key
			Params domain.ResolveParams
		}
		DeleteByIDs [][]uuid.UUID
	}
}

func (m *notificationRepoMock) UpsertIfAbsent(ctx context.Context, n domain.NotificationState) (domain.NotificationState, bool, error) {
	if m.UpsertIfAbsentFunc == nil {
		panic("notificationRepoMock.UpsertIfAbsentFunc is nil")
	}
	m.mu.Lock()
	m.calls.UpsertIfAbsent = append(m.calls.UpsertIfAbsent, n)
	m.mu.Unlock()
	return m.UpsertIfAbsentFunc(ctx, n)
}

func (m *notificationRepoMock) UpsertIfAbsentCalls() []domain.NotificationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.UpsertIfAbsent
}

func (m *notificationRepoMock) Get(ctx context.Context, key domain.Key) (domain.NotificationState, error) {
	if m.GetFunc == nil {
		panic("notificationRepoMock.GetFunc is nil")
	}
	return m.GetFunc(ctx, key)
}

func (m *notificationRepoMock) ListPending(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error) {
	if m.ListPendingFunc == nil {
		panic("notificationRepoMock.ListPendingFunc is nil")
	}
	return m.ListPendingFunc(ctx, filter)
}

func (m *notificationRepoMock) ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]domain.NotificationState, error) {
	if m.ListDueForExpiryFunc == nil {
		panic("notificationRepoMock.ListDueForExpiryFunc is nil")
	}
	return m.ListDueForExpiryFunc(ctx, now, limit)
}

func (m *notificationRepoMock) ListResolvedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.NotificationState, error) {
	if m.ListResolvedBeforeFunc == nil {
		panic("notificationRepoMock.ListResolvedBeforeFunc is nil")
	}
	return m.ListResolvedBeforeFunc(ctx, cutoff, limit)
}

func (m *notificationRepoMock) MarkResolved(ctx context.Context, key domain.Key, p domain.ResolveParams) (domain.NotificationState, error) {
	if m.MarkResolvedFunc == nil {
		panic("notificationRepoMock.MarkResolvedFunc is nil")
	}
	m.mu.Lock()
	m.calls.MarkResolved = append(m.calls.MarkResolved, struct {
		Key    domain.Key
		Params domain.ResolveParams
	}{key, p})
	m.mu.Unlock()
	return m.MarkResolvedFunc(ctx, key, p)
}

func (m *notificationRepoMock) MarkResolvedCalls() []struct {
	Key    domain.Key
	Params domain.ResolveParams
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.MarkResolved
}

func (m *notificationRepoMock) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if m.DeleteByIDsFunc == nil {
		panic("notificationRepoMock.DeleteByIDsFunc is nil")
	}
	m.mu.Lock()
	m.calls.DeleteByIDs = append(m.calls.DeleteByIDs, ids)
	m.mu.Unlock()
	return m.DeleteByIDsFunc(ctx, ids)
}

func (m *notificationRepoMock) DeleteByIDsCalls() [][]uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.DeleteByIDs
}

func (m *notificationRepoMock) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	if m.CountByStatusFunc == nil {
		panic("notificationRepoMock.CountByStatusFunc is nil")
	}
	return m.CountByStatusFunc(ctx)
}

var _ auditRepo = &auditRepoMock{}

type auditRepoMock struct {
	LogFunc            func(ctx context.Context, entry domain.AuditEntry) error
	SuppressedKeysFunc func(ctx context.Context, feed domain.SourceFeed, transactionIDs []string) (map[string]struct{}, error)
	ListByKeyFunc      func(ctx context.Context, key domain.Key, limit int) ([]domain.AuditEntry, error)

	mu    sync.Mutex
	calls struct {
		Log []domain.AuditEntry
	}
}

func (m *auditRepoMock) Log(ctx context.Context, entry domain.AuditEntry) error {
	if m.LogFunc == nil {
		panic("auditRepoMock.LogFunc is nil")
	}
	m.mu.Lock()
	m.calls.Log = append(m.calls.Log, entry)
	m.mu.Unlock()
	return m.LogFunc(ctx, entry)
}

func (m *auditRepoMock) LogCalls() []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Log
}

func (m *auditRepoMock) SuppressedKeys(ctx context.Context, feed domain.SourceFeed, transactionIDs []string) (map[string]struct{}, error) {
	if m.SuppressedKeysFunc == nil {
		panic("auditRepoMock.SuppressedKeysFunc is nil")
	}
	return m.SuppressedKeysFunc(ctx, feed, transactionIDs)
}

func (m *auditRepoMock) ListByKey(ctx context.Context, key domain.Key, limit int) ([]domain.AuditEntry, error) {
	if m.ListByKeyFunc == nil {
		panic("auditRepoMock.ListByKeyFunc is nil")
	}
	return m.ListByKeyFunc(ctx, key, limit)
}

var _ feedRepo = &feedRepoMock{}

type feedRepoMock struct {
	ListCreatedSinceFunc func(ctx context.Context, feed domain.SourceFeed, cutoff time.Time, limit int) ([]domain.Transaction, error)
}

func (m *feedRepoMock) ListCreatedSince(ctx context.Context, feed domain.SourceFeed, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	if m.ListCreatedSinceFunc == nil {
		panic("feedRepoMock.ListCreatedSinceFunc is nil")
	}
	return m.ListCreatedSinceFunc(ctx, feed, cutoff, limit)
}

var _ sessionRepo = &sessionRepoMock{}

type sessionRepoMock struct {
	TouchFunc            func(ctx context.Context, actor string, at time.Time) error
	DeleteSeenBeforeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

	mu    sync.Mutex
	calls struct {
		Touch []string
	}
}

func (m *sessionRepoMock) Touch(ctx context.Context, actor string, at time.Time) error {
	if m.TouchFunc == nil {
		panic("sessionRepoMock.TouchFunc is nil")
	}
	m.mu.Lock()
	m.calls.Touch = append(m.calls.Touch, actor)
	m.mu.Unlock()
	return m.TouchFunc(ctx, actor, at)
}

func (m *sessionRepoMock) TouchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Touch
}

func (m *sessionRepoMock) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteSeenBeforeFunc == nil {
		panic("sessionRepoMock.DeleteSeenBeforeFunc is nil")
	}
	return m.DeleteSeenBeforeFunc(ctx, cutoff)
}

var _ txManager = &txManagerMock{}

// txManagerMock runs the callback directly, without a real transaction.
type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc == nil {
		return fn(ctx)
	}
	return m.RunInTxFunc(ctx, fn)
}

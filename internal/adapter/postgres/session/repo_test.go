package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/opsboard/backend/internal/adapter/postgres/session"
	"github.com/opsboard/backend/internal/adapter/postgres/testhelper"
)

func TestTouch_And_DeleteSeenBefore(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := session.New(pool)
	ctx := context.Background()

	now := time.Now()

	staleID := testhelper.SeedSession(t, pool, "stale-actor", now.Add(-30*24*time.Hour))

	if err := repo.Touch(ctx, "fresh-actor", now); err != nil {
		t.Fatalf("Touch returned error: %v", err)
	}

	deleted, err := repo.DeleteSeenBefore(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteSeenBefore returned error: %v", err)
	}
	if deleted < 1 {
		t.Fatalf("expected at least 1 deleted session, got %d", deleted)
	}

	var staleExists, freshExists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM dashboard_sessions WHERE id = $1)`, staleID,
	).Scan(&staleExists); err != nil {
		t.Fatalf("query stale session: %v", err)
	}
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM dashboard_sessions WHERE actor = 'fresh-actor')`,
	).Scan(&freshExists); err != nil {
		t.Fatalf("query fresh session: %v", err)
	}

	if staleExists {
		t.Error("expected stale session to be deleted")
	}
	if !freshExists {
		t.Error("expected fresh session to survive the sweep")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opsboard/backend/pkg/ctxutil"
)

func TestActor_HeaderPresent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ctxutil.ActorFromCtx(r.Context())
		if !ok {
			t.Error("expected actor in context")
			return
		}
		if actor != "ops-lead" {
			t.Errorf("expected actor ops-lead, got %s", actor)
		}
		w.WriteHeader(http.StatusOK)
	})

	wrapped := Actor()(handler)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(ActorHeader, "ops-lead")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestActor_HeaderAbsent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ctxutil.ActorFromCtx(r.Context()); ok {
			t.Error("expected no actor in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	wrapped := Actor()(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

package middleware

import (
	"net/http"

	"github.com/opsboard/backend/pkg/ctxutil"
)

// ActorHeader identifies the dashboard user performing a request.
const ActorHeader = "X-Actor"

// Actor returns middleware that copies the acting identity from the
// request header into the context. Requests without the header pass
// through unchanged; handlers that require an actor reject them.
func Actor() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor := r.Header.Get(ActorHeader); actor != "" {
				r = r.WithContext(ctxutil.WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

package authz

import (
	"net/http"

	"log/slog"

	"github.com/gerbang-admin/gerbang/internal/platform/httpx"
)

// Middleware enforces authorization decisions for HTTP handlers. It is
// the dispatch-layer adapter around Engine.Authorize: 401 when no actor
// is present, 403 when the actor is denied.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// Protect authorizes every request using the action implied by the HTTP
// method.
func (m Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		decision, err := m.Engine.Authorize(r.Context(), actor, r.Method, r.URL.Path, ActionForMethod(r.Method))
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("authorize", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !decision.Allowed {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}

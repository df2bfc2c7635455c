package auth

import (
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/gerbang-admin/gerbang/internal/authz"
	"github.com/gerbang-admin/gerbang/internal/shared"
)

// Middleware places the actor for the current session into the request
// context. Requests without a resolvable user pass through anonymous;
// the enforcement middleware turns those into 401s.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// LoadActor resolves the session user into an authz.Actor.
func (m Middleware) LoadActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.Service.LoadActor(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("load actor", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.ContextWithActor(r.Context(), actor)))
	})
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(shared.SessionUser(r.Context()))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Warn("session user id", slog.String("value", raw), slog.Any("error", shared.ErrInvalidSession))
		}
		return 0, false
	}
	return id, true
}

package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/gerbang-admin/gerbang/internal/audit/http"
	"github.com/gerbang-admin/gerbang/internal/auth"
	"github.com/gerbang-admin/gerbang/internal/authz"
	"github.com/gerbang-admin/gerbang/internal/observability"
	"github.com/gerbang-admin/gerbang/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	AuthMiddleware  auth.Middleware
	AuthzMiddleware authz.Middleware
	AuditHandler    *audithttp.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Gerbang defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Everything under /api carries an actor and goes through the
	// decision engine.
	r.Route("/api", func(r chi.Router) {
		r.Use(params.AuthMiddleware.LoadActor)
		r.Use(params.AuthzMiddleware.Protect)

		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
	})

	return r
}

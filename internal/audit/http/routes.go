package audithttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the audit trail endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/access-logs", h.handleAccessLogs)
	r.Get("/violations", h.handleViolations)
}

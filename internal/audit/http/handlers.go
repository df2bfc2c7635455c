package audithttp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/gerbang-admin/gerbang/internal/audit"
	"github.com/gerbang-admin/gerbang/internal/platform/httpx"
)

// TimelineService defines the business contract for audit trail data.
type TimelineService interface {
	AccessLogs(ctx context.Context, filters audit.AccessFilters) (audit.AccessResult, error)
	Violations(ctx context.Context, filters audit.ViolationFilters) (audit.ViolationResult, error)
}

// Handler menangani permintaan pembacaan jejak audit.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service TimelineService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleAccessLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := audit.AccessFilters{
		From:     parseTime(query.Get("from")),
		To:       parseTime(query.Get("to")),
		UserID:   parseID(query.Get("user_id")),
		Decision: query.Get("decision"),
		Reason:   query.Get("reason"),
		Page:     parseInt(query.Get("page")),
		PageSize: parseInt(query.Get("page_size")),
	}
	result, err := h.service.AccessLogs(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit access logs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accessResponse(result))
}

func (h *Handler) handleViolations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := audit.ViolationFilters{
		From:      parseTime(query.Get("from")),
		To:        parseTime(query.Get("to")),
		UserID:    parseID(query.Get("user_id")),
		Attribute: query.Get("attribute"),
		Page:      parseInt(query.Get("page")),
		PageSize:  parseInt(query.Get("page_size")),
	}
	result, err := h.service.Violations(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit violations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, violationResponse(result))
}

type accessRowJSON struct {
	At           time.Time `json:"at"`
	DecisionID   string    `json:"decision_id"`
	UserID       int64     `json:"user_id,omitempty"`
	RoleID       int64     `json:"role_id,omitempty"`
	CapabilityID int64     `json:"capability_id,omitempty"`
	Path         string    `json:"path"`
	Method       string    `json:"method"`
	Decision     string    `json:"decision"`
	Reason       string    `json:"reason"`
}

type violationRowJSON struct {
	At           time.Time `json:"at"`
	DecisionID   string    `json:"decision_id"`
	UserID       int64     `json:"user_id,omitempty"`
	CapabilityID int64     `json:"capability_id,omitempty"`
	Attribute    string    `json:"attribute"`
	Reason       string    `json:"reason"`
}

type pagingJSON struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
}

func accessResponse(result audit.AccessResult) map[string]any {
	rows := make([]accessRowJSON, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, accessRowJSON{
			At:           row.At,
			DecisionID:   row.DecisionID,
			UserID:       row.UserID,
			RoleID:       row.RoleID,
			CapabilityID: row.CapabilityID,
			Path:         row.Path,
			Method:       row.Method,
			Decision:     row.Decision,
			Reason:       row.Reason,
		})
	}
	return map[string]any{
		"rows":   rows,
		"paging": pagingJSON{Page: result.Paging.Page, PageSize: result.Paging.PageSize, HasNext: result.Paging.HasNext},
	}
}

func violationResponse(result audit.ViolationResult) map[string]any {
	rows := make([]violationRowJSON, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, violationRowJSON{
			At:           row.At,
			DecisionID:   row.DecisionID,
			UserID:       row.UserID,
			CapabilityID: row.CapabilityID,
			Attribute:    row.Attribute,
			Reason:       row.Reason,
		})
	}
	return map[string]any{
		"rows":   rows,
		"paging": pagingJSON{Page: result.Paging.Page, PageSize: result.Paging.PageSize, HasNext: result.Paging.HasNext},
	}
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseID(value string) int64 {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func parseInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

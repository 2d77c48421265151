package audithttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clubdesk/clubdesk/internal/audit"
	"github.com/clubdesk/clubdesk/internal/platform/httpx"
	"github.com/clubdesk/clubdesk/internal/shared"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// LogService defines the read contract for audit data.
type LogService interface {
	Query(ctx context.Context, filters audit.Filters, page shared.Pagination) ([]audit.Entry, error)
	Export(ctx context.Context, w io.Writer, filters audit.Filters) error
}

// Handler serves audit log queries and exports.
type Handler struct {
	logger  *slog.Logger
	service LogService
}

// NewHandler builds an audit handler.
func NewHandler(logger *slog.Logger, service LogService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

type entryPayload struct {
	ID            int64          `json:"id"`
	AdminID       int64          `json:"adminId"`
	AdminUsername string         `json:"adminUsername"`
	ActionType    string         `json:"actionType"`
	Module        string         `json:"module"`
	ItemID        string         `json:"itemId,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	IPAddress     string         `json:"ipAddress"`
	UserAgent     string         `json:"userAgent"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	filters, page, err := parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entries, err := h.service.Query(r.Context(), filters, page)
	if err != nil {
		h.logger.Error("query audit logs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, entryPayload{
			ID:            e.ID,
			AdminID:       e.AdminID,
			AdminUsername: e.AdminUsername,
			ActionType:    e.ActionType,
			Module:        e.Module,
			ItemID:        e.ItemID,
			Details:       e.Details,
			IPAddress:     e.IPAddress,
			UserAgent:     e.UserAgent,
			Status:        e.Status,
			CreatedAt:     e.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": payload,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, _, err := parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-logs.csv"`)
	if err := h.service.Export(r.Context(), w, filters); err != nil {
		// Headers may already be gone; log instead of re-responding.
		h.logger.Error("export audit logs", slog.Any("error", err))
	}
}

func parseQuery(r *http.Request) (audit.Filters, shared.Pagination, error) {
	q := r.URL.Query()
	filters := audit.Filters{
		Search: strings.TrimSpace(q.Get("search")),
		Module: strings.TrimSpace(q.Get("module")),
	}
	if raw := strings.TrimSpace(q.Get("adminId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return audit.Filters{}, shared.Pagination{}, strconv.ErrSyntax
		}
		filters.AdminID = id
	}
	limit := defaultLimit
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return audit.Filters{}, shared.Pagination{}, strconv.ErrSyntax
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return audit.Filters{}, shared.Pagination{}, strconv.ErrSyntax
		}
		offset = parsed
	}
	return filters, shared.NewPagination(limit, offset, maxLimit), nil
}

package approval

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubdesk/clubdesk/internal/platform/httpx"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Handler serves the super-admin review endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds an approval handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers approval review routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/approvals", h.list)
	r.Post("/approvals/{id}/approve", h.approve)
	r.Post("/approvals/{id}/reject", h.reject)
}

type approvalPayload struct {
	ID                  int64          `json:"id"`
	RequestedBy         int64          `json:"requestedBy"`
	RequestedByUsername string         `json:"requestedByUsername"`
	Module              string         `json:"module"`
	ActionType          string         `json:"actionType"`
	ItemData            map[string]any `json:"itemData"`
	Status              string         `json:"status"`
	ReviewedBy          int64          `json:"reviewedBy,omitempty"`
	ReviewedByUsername  string         `json:"reviewedByUsername,omitempty"`
	ReviewedAt          *time.Time     `json:"reviewedAt,omitempty"`
	ReviewNotes         string         `json:"reviewNotes,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
}

func toApprovalPayload(p PendingApproval) approvalPayload {
	payload := approvalPayload{
		ID:                  p.ID,
		RequestedBy:         p.RequestedBy,
		RequestedByUsername: p.RequestedByUsername,
		Module:              string(p.Module),
		ActionType:          string(p.ActionType),
		ItemData:            p.ItemData,
		Status:              string(p.Status),
		ReviewedBy:          p.ReviewedBy,
		ReviewedByUsername:  p.ReviewedByUsername,
		ReviewNotes:         p.ReviewNotes,
		CreatedAt:           p.CreatedAt,
	}
	// Unreviewed rows come back with reviewed_at coalesced to the epoch.
	if p.ReviewedAt.Unix() > 0 {
		at := p.ReviewedAt
		payload.ReviewedAt = &at
	}
	return payload
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payload := make([]approvalPayload, 0, len(approvals))
	for _, p := range approvals {
		payload = append(payload, toApprovalPayload(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"approvals": payload})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	approvalID, reviewer, ok := h.resolveParams(w, r)
	if !ok {
		return
	}
	resolved, err := h.service.Approve(r.Context(), approvalID, *reviewer)
	if err != nil {
		if errors.Is(err, shared.ErrUnsupportedApprovalAction) {
			// A pending approval the replay path cannot execute is a server
			// defect: the dispatch table and the submit path disagree.
			h.logger.Error("approval dispatch miss",
				slog.Int64("approval_id", approvalID),
				slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"approval": toApprovalPayload(resolved)})
}

type rejectRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	approvalID, reviewer, ok := h.resolveParams(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	resolved, err := h.service.Reject(r.Context(), approvalID, *reviewer, req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"approval": toApprovalPayload(resolved)})
}

func (h *Handler) resolveParams(w http.ResponseWriter, r *http.Request) (int64, *shared.Identity, bool) {
	reviewer := shared.IdentityFromContext(r.Context())
	if reviewer == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return 0, nil, false
	}
	approvalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || approvalID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid approval id")
		return 0, nil, false
	}
	return approvalID, reviewer, true
}

// Package contenthttp exposes the guarded mutation surface for club content.
// Every write is evaluated against the caller's permission matrix first; a
// write that lands on a module with approval enabled is parked as a pending
// approval instead of executing.
package contenthttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubdesk/clubdesk/internal/approval"
	"github.com/clubdesk/clubdesk/internal/audit"
	"github.com/clubdesk/clubdesk/internal/authz"
	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/platform/httpx"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Submitter parks a deferred write for super-admin review.
type Submitter interface {
	Submit(ctx context.Context, requester shared.Identity, module content.Module, action content.Action, itemData map[string]any) (approval.PendingApproval, error)
}

// Handler routes content writes through the permission engine.
type Handler struct {
	logger    *slog.Logger
	engine    *authz.Engine
	registry  *content.Registry
	pool      *pgxpool.Pool
	approvals Submitter
	audit     *audit.Recorder
}

// NewHandler builds the content mutation handler.
func NewHandler(logger *slog.Logger, engine *authz.Engine, registry *content.Registry, pool *pgxpool.Pool, approvals Submitter, recorder *audit.Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		engine:    engine,
		registry:  registry,
		pool:      pool,
		approvals: approvals,
		audit:     recorder,
	}
}

// MountRoutes registers the per-module write routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{module}", h.mutate(content.ActionCreate))
	r.Put("/{module}/{id}", h.mutate(content.ActionEdit))
	r.Delete("/{module}/{id}", h.mutate(content.ActionDelete))
}

func (h *Handler) mutate(action content.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module, ok := content.ParseModule(chi.URLParam(r, "module"))
		if !ok {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown content module")
			return
		}

		caller := shared.IdentityFromContext(r.Context())
		if caller == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		itemID := chi.URLParam(r, "id")
		if action != content.ActionCreate && itemID == "" {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item id is required")
			return
		}

		var data map[string]any
		if action != content.ActionDelete {
			if err := httpx.DecodeJSON(r, &data); err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
				return
			}
		}
		if data == nil {
			data = map[string]any{}
		}
		if itemID != "" {
			data["id"] = itemID
		}

		decision, err := h.engine.Authorize(r.Context(), caller, module, action)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}

		switch decision.Effect {
		case authz.EffectDeny:
			h.recordOutcome(r, caller, module, action, itemID, audit.StatusFailure, map[string]any{"reason": decision.Reason})
			httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Reason)
		case authz.EffectDefer:
			h.park(w, r, caller, module, action, data)
		case authz.EffectAllow:
			h.apply(w, r, caller, module, action, itemID, data)
		default:
			httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
		}
	}
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, caller *shared.Identity, module content.Module, action content.Action, itemID string, data map[string]any) {
	resultID, err := h.registry.Apply(r.Context(), h.pool, module, action, itemID, data)
	if err != nil {
		h.recordOutcome(r, caller, module, action, itemID, audit.StatusFailure, map[string]any{"error": err.Error()})
		httpx.RespondError(w, err)
		return
	}
	h.recordOutcome(r, caller, module, action, resultID, audit.StatusSuccess, nil)

	status := http.StatusOK
	if action == content.ActionCreate {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, map[string]any{"id": resultID})
}

func (h *Handler) park(w http.ResponseWriter, r *http.Request, caller *shared.Identity, module content.Module, action content.Action, data map[string]any) {
	pending, err := h.approvals.Submit(r.Context(), *caller, module, action, data)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"pending":    true,
		"approvalId": pending.ID,
	})
}

func (h *Handler) recordOutcome(r *http.Request, caller *shared.Identity, module content.Module, action content.Action, itemID, status string, details map[string]any) {
	meta := shared.RequestMetaFromContext(r.Context())
	h.audit.Record(r.Context(), audit.Entry{
		AdminID:       caller.ID,
		AdminUsername: caller.Username,
		ActionType:    string(action),
		Module:        string(module),
		ItemID:        itemID,
		Details:       details,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Status:        status,
	})
}

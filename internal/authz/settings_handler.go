package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/platform/httpx"
)

// SettingsHandler exposes the per-module approval requirement settings.
// All routes are mounted behind the super-admin guard.
type SettingsHandler struct {
	logger *slog.Logger
	repo   SettingsRepository
	cache  *SettingsCache
}

// NewSettingsHandler builds a SettingsHandler.
func NewSettingsHandler(logger *slog.Logger, repo SettingsRepository, cache *SettingsCache) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{logger: logger, repo: repo, cache: cache}
}

// MountRoutes registers settings routes.
func (h *SettingsHandler) MountRoutes(r chi.Router) {
	r.Get("/settings/approvals", h.list)
	r.Put("/settings/approvals/{module}", h.update)
}

type settingPayload struct {
	Module        string `json:"module"`
	ApproveCreate bool   `json:"requiresApprovalForCreate"`
	ApproveEdit   bool   `json:"requiresApprovalForEdit"`
	ApproveDelete bool   `json:"requiresApprovalForDelete"`
}

func (h *SettingsHandler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list approval settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]settingPayload, 0, len(settings))
	for _, s := range settings {
		payload = append(payload, settingPayload{
			Module:        string(s.Module),
			ApproveCreate: s.ApproveCreate,
			ApproveEdit:   s.ApproveEdit,
			ApproveDelete: s.ApproveDelete,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"settings": payload})
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	module, ok := content.ParseModule(chi.URLParam(r, "module"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown module")
		return
	}
	var payload settingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	setting := Setting{
		Module:        module,
		ApproveCreate: payload.ApproveCreate,
		ApproveEdit:   payload.ApproveEdit,
		ApproveDelete: payload.ApproveDelete,
	}
	if err := h.repo.Upsert(r.Context(), setting); err != nil {
		h.logger.Error("upsert approval setting", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), module)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"setting": settingPayload{
		Module:        string(module),
		ApproveCreate: setting.ApproveCreate,
		ApproveEdit:   setting.ApproveEdit,
		ApproveDelete: setting.ApproveDelete,
	}})
}

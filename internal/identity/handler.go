package identity

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubdesk/clubdesk/internal/platform/httpx"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(id shared.Identity) (string, error)
	IssueElevated(id shared.Identity) (string, error)
}

// Handler wires HTTP endpoints for authentication and admin management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    TokenIssuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens TokenIssuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		tokens:    tokens,
		validator: validator.New(),
	}
}

// MountAuthRoutes registers the unauthenticated login route.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

// MountElevationRoutes registers the authenticated elevation route.
func (h *Handler) MountElevationRoutes(r chi.Router) {
	r.Post("/auth/verify-superadmin", h.handleElevate)
}

// MountAdminRoutes registers super-admin-only account management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/admins", h.listAdmins)
	r.Post("/admins", h.createAdmin)
	r.Put("/admins/{id}/permissions", h.updatePermissions)
	r.Put("/admins/{id}/active", h.updateActive)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type identityPayload struct {
	ID           int64                      `json:"id"`
	Username     string                     `json:"username"`
	Role         string                     `json:"role"`
	IsSuperAdmin bool                       `json:"isSuperAdmin"`
	IsActive     bool                       `json:"isActive"`
	Permissions  map[string]map[string]bool `json:"permissions"`
}

func toPayload(id shared.Identity) identityPayload {
	return identityPayload{
		ID:           id.ID,
		Username:     id.Username,
		Role:         id.Role,
		IsSuperAdmin: id.IsSuperAdmin,
		IsActive:     id.IsActive,
		Permissions:  id.Permissions,
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username and password required")
		return
	}
	admin, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := IdentityOf(admin)
	signed, err := h.tokens.Issue(id)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"token": signed, "identity": toPayload(id)})
}

type elevateRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleElevate(w http.ResponseWriter, r *http.Request) {
	current := shared.IdentityFromContext(r.Context())
	if current == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req elevateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "password required")
		return
	}
	admin, err := h.service.Reauthenticate(r.Context(), current.ID, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	signed, err := h.tokens.IssueElevated(IdentityOf(admin))
	if err != nil {
		h.logger.Error("issue elevated token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"token": signed})
}

type createAdminRequest struct {
	Username    string                     `json:"username" validate:"required,min=3"`
	Password    string                     `json:"password" validate:"required,min=8"`
	Role        string                     `json:"role" validate:"required"`
	Permissions map[string]map[string]bool `json:"permissions"`
}

func (h *Handler) createAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	admin, err := h.service.CreateAdmin(r.Context(), CreateAdminInput{
		Username:    req.Username,
		Password:    req.Password,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"admin": toPayload(IdentityOf(admin))})
}

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list admins", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]identityPayload, 0, len(admins))
	for i := range admins {
		payload = append(payload, toPayload(IdentityOf(&admins[i])))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"admins": payload})
}

type permissionsRequest struct {
	Permissions map[string]map[string]bool `json:"permissions" validate:"required"`
}

func (h *Handler) updatePermissions(w http.ResponseWriter, r *http.Request) {
	adminID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid admin id")
		return
	}
	var req permissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.service.SetPermissions(r.Context(), adminID, req.Permissions); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) updateActive(w http.ResponseWriter, r *http.Request) {
	adminID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid admin id")
		return
	}
	var req activeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Active == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "active flag required")
		return
	}
	if err := h.service.SetActive(r.Context(), adminID, *req.Active); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
}

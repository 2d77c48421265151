package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/clubdesk/clubdesk/internal/approval"
	audithttp "github.com/clubdesk/clubdesk/internal/audit/http"
	"github.com/clubdesk/clubdesk/internal/authz"
	contenthttp "github.com/clubdesk/clubdesk/internal/content/http"
	"github.com/clubdesk/clubdesk/internal/identity"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config *Config

	AuthMiddleware authz.Middleware

	IdentityHandler *identity.Handler
	ContentHandler  *contenthttp.Handler
	ApprovalHandler *approval.Handler
	SettingsHandler *authz.SettingsHandler
	AuditHandler    *audithttp.Handler
}

// NewRouter constructs the chi.Router with ClubDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.AuthMiddleware.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Login gets its own tighter limit on top of the global one. Credential
	// stuffing moves faster than any human typo streak.
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.IdentityHandler.MountAuthRoutes(gr)
	})

	r.Group(func(gr chi.Router) {
		gr.Use(params.AuthMiddleware.Authenticate)

		params.IdentityHandler.MountElevationRoutes(gr)

		gr.Route("/api", func(api chi.Router) {
			params.ContentHandler.MountRoutes(api)

			api.Group(func(sa chi.Router) {
				sa.Use(authz.RequireSuperAdmin)
				params.ApprovalHandler.MountRoutes(sa)
				params.SettingsHandler.MountRoutes(sa)
				params.AuditHandler.MountRoutes(sa)
				params.IdentityHandler.MountAdminRoutes(sa)
			})
		})
	})

	return r
}

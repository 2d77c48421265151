package authz

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clubdesk/clubdesk/internal/platform/httpx"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// TokenVerifier decodes a bearer token into an identity.
type TokenVerifier interface {
	Verify(raw string) (shared.Identity, error)
}

// Middleware wires authentication helpers for HTTP handlers.
type Middleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

// Authenticate extracts and verifies the Authorization bearer token, storing
// the identity and request metadata in the context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		id, err := m.Verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("token rejected", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), &id)
		ctx = shared.ContextWithRequestMeta(ctx, shared.RequestMeta{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSuperAdmin rejects requests whose identity is not a super-admin.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := shared.IdentityFromContext(r.Context())
		if id == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		if !id.IsSuperAdmin {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "super-admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

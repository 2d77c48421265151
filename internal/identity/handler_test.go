package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubdesk/clubdesk/internal/shared"
)

type stubIssuer struct {
	issued         []shared.Identity
	elevatedIssued []shared.Identity
}

func (s *stubIssuer) Issue(id shared.Identity) (string, error) {
	s.issued = append(s.issued, id)
	return "signed-token", nil
}

func (s *stubIssuer) IssueElevated(id shared.Identity) (string, error) {
	s.elevatedIssued = append(s.elevatedIssued, id)
	return "elevated-token", nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeRepo, *stubIssuer) {
	t.Helper()
	repo := newFakeRepo()
	issuer := &stubIssuer{}
	return NewHandler(nil, NewService(repo), issuer), repo, issuer
}

func TestLoginReturnsTokenAndIdentity(t *testing.T) {
	h, repo, issuer := newTestHandler(t)
	seedAdmin(t, repo, "clerk", "hunter2hunter2", "admin", true)

	r := chi.NewRouter()
	h.MountAuthRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"clerk","password":"hunter2hunter2"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Token    string `json:"token"`
		Identity struct {
			Username     string `json:"username"`
			IsSuperAdmin bool   `json:"isSuperAdmin"`
		} `json:"identity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed-token", body.Token)
	assert.Equal(t, "clerk", body.Identity.Username)
	assert.False(t, body.Identity.IsSuperAdmin)
	require.Len(t, issuer.issued, 1)
}

func TestLoginBadCredentials(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	seedAdmin(t, repo, "clerk", "hunter2hunter2", "admin", true)

	r := chi.NewRouter()
	h.MountAuthRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"clerk","password":"nope"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginMissingFields(t *testing.T) {
	h, _, _ := newTestHandler(t)

	r := chi.NewRouter()
	h.MountAuthRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"clerk"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestElevateIssuesShortLivedToken(t *testing.T) {
	h, repo, issuer := newTestHandler(t)
	root := seedAdmin(t, repo, "root", "rootpassword", RoleSuperAdmin, true)

	r := chi.NewRouter()
	h.MountElevationRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-superadmin",
		strings.NewReader(`{"password":"rootpassword"}`))
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{ID: root.ID, Username: "root"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "elevated-token")
	require.Len(t, issuer.elevatedIssued, 1)
}

func TestElevateRefusedForPlainAdmin(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	plain := seedAdmin(t, repo, "clerk", "hunter2hunter2", "admin", true)

	r := chi.NewRouter()
	h.MountElevationRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-superadmin",
		strings.NewReader(`{"password":"hunter2hunter2"}`))
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{ID: plain.ID, Username: "clerk"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestElevateWithoutIdentity(t *testing.T) {
	h, _, _ := newTestHandler(t)

	r := chi.NewRouter()
	h.MountElevationRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-superadmin",
		strings.NewReader(`{"password":"x"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAdminEndpoint(t *testing.T) {
	h, repo, _ := newTestHandler(t)

	r := chi.NewRouter()
	h.MountAdminRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/admins",
		strings.NewReader(`{"username":"newbie","password":"longenough","role":"moderator","permissions":{"events":{"create":true}}}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	created, err := repo.FindByUsername(req.Context(), "newbie")
	require.NoError(t, err)
	assert.True(t, created.Permissions["events"]["create"])
}

func TestUpdateActiveEndpoint(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	admin := seedAdmin(t, repo, "clerk", "hunter2hunter2", "admin", true)

	r := chi.NewRouter()
	h.MountAdminRoutes(r)

	req := httptest.NewRequest(http.MethodPut, "/admins/1/active", strings.NewReader(`{"active":false}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.byID[admin.ID].IsActive)
}

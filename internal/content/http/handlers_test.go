package contenthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubdesk/clubdesk/internal/approval"
	"github.com/clubdesk/clubdesk/internal/audit"
	"github.com/clubdesk/clubdesk/internal/authz"
	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/shared"
)

type stubSettings struct {
	required map[string]bool
}

func (s *stubSettings) RequiresApproval(ctx context.Context, module content.Module, action content.Action) (bool, error) {
	return s.required[string(module)+"."+string(action)], nil
}

type memMutator struct {
	store map[string]map[string]any
	next  int
}

func newMemMutator() *memMutator {
	return &memMutator{store: make(map[string]map[string]any), next: 1}
}

func (m *memMutator) Create(ctx context.Context, q db.Querier, data map[string]any) (string, error) {
	id := "m-1"
	m.store[id] = data
	return id, nil
}

func (m *memMutator) Edit(ctx context.Context, q db.Querier, id string, data map[string]any) error {
	if _, ok := m.store[id]; !ok {
		return shared.ErrNotFound
	}
	for k, v := range data {
		m.store[id][k] = v
	}
	return nil
}

func (m *memMutator) Delete(ctx context.Context, q db.Querier, id string) error {
	if _, ok := m.store[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type stubSubmitter struct {
	submissions []approval.PendingApproval
	lastData    map[string]any
}

func (s *stubSubmitter) Submit(ctx context.Context, requester shared.Identity, module content.Module, action content.Action, itemData map[string]any) (approval.PendingApproval, error) {
	p := approval.PendingApproval{
		ID:          int64(len(s.submissions) + 1),
		RequestedBy: requester.ID,
		Module:      module,
		ActionType:  action,
		ItemData:    itemData,
		Status:      approval.StatusPending,
	}
	s.submissions = append(s.submissions, p)
	s.lastData = itemData
	return p, nil
}

type fixture struct {
	router    chi.Router
	mutator   *memMutator
	submitter *stubSubmitter
}

func newFixture(t *testing.T, required map[string]bool) *fixture {
	t.Helper()
	engine := authz.NewEngine(&stubSettings{required: required})
	mutator := newMemMutator()
	registry := content.NewRegistry()
	registry.Register(content.ModuleMembers, mutator)
	submitter := &stubSubmitter{}
	handler := NewHandler(nil, engine, registry, nil, submitter, audit.NewRecorder(nil, nil))

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return &fixture{router: r, mutator: mutator, submitter: submitter}
}

func doRequest(f *fixture, method, path, body string, id *shared.Identity) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if id != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), id))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func granted() *shared.Identity {
	return &shared.Identity{
		ID:       3,
		Username: "clerk",
		Role:     "admin",
		IsActive: true,
		Permissions: map[string]map[string]bool{
			"members": {"create": true, "edit": true, "delete": true},
		},
	}
}

func TestCreateAllowedWritesImmediately(t *testing.T) {
	f := newFixture(t, nil)

	rec := doRequest(f, http.MethodPost, "/members", `{"name":"Ada"}`, granted())

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "m-1", body["id"])
	assert.Equal(t, "Ada", f.mutator.store["m-1"]["name"])
	assert.Empty(t, f.submitter.submissions)
}

func TestCreateGatedModuleDefers(t *testing.T) {
	f := newFixture(t, map[string]bool{"members.create": true})

	rec := doRequest(f, http.MethodPost, "/members", `{"name":"Ada"}`, granted())

	require.Equal(t, http.StatusAccepted, rec.Code)
	var body struct {
		Pending    bool  `json:"pending"`
		ApprovalID int64 `json:"approvalId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Pending)
	assert.Equal(t, int64(1), body.ApprovalID)
	assert.Empty(t, f.mutator.store, "deferred write must not touch content")
	require.Len(t, f.submitter.submissions, 1)
	assert.Equal(t, "Ada", f.submitter.lastData["name"])
}

func TestDeleteGatedCarriesItemID(t *testing.T) {
	f := newFixture(t, map[string]bool{"members.delete": true})
	f.mutator.store["m-9"] = map[string]any{"name": "Ada"}

	rec := doRequest(f, http.MethodDelete, "/members/m-9", "", granted())

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.submitter.submissions, 1)
	assert.Equal(t, "m-9", f.submitter.lastData["id"])
	assert.Contains(t, f.mutator.store, "m-9", "delete must wait for approval")
}

func TestMissingGrantDenied(t *testing.T) {
	f := newFixture(t, nil)
	id := granted()
	id.Permissions = map[string]map[string]bool{"members": {"edit": true}}

	rec := doRequest(f, http.MethodPost, "/members", `{"name":"Ada"}`, id)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "members.create")
	assert.Empty(t, f.mutator.store)
}

func TestSuperAdminSkipsApprovalGate(t *testing.T) {
	f := newFixture(t, map[string]bool{"members.create": true})
	id := &shared.Identity{ID: 1, Username: "root", IsSuperAdmin: true}

	rec := doRequest(f, http.MethodPost, "/members", `{"name":"Ada"}`, id)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, f.submitter.submissions)
	assert.Contains(t, f.mutator.store, "m-1")
}

func TestUnknownModuleNotFound(t *testing.T) {
	f := newFixture(t, nil)

	rec := doRequest(f, http.MethodPost, "/payroll", `{"x":1}`, granted())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditAppliesById(t *testing.T) {
	f := newFixture(t, nil)
	f.mutator.store["m-1"] = map[string]any{"name": "Ada"}

	rec := doRequest(f, http.MethodPut, "/members/m-1", `{"name":"Grace"}`, granted())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grace", f.mutator.store["m-1"]["name"])
}

func TestEditMissingItem(t *testing.T) {
	f := newFixture(t, nil)

	rec := doRequest(f, http.MethodPut, "/members/nope", `{"name":"Grace"}`, granted())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidJSONBody(t *testing.T) {
	f := newFixture(t, nil)

	rec := doRequest(f, http.MethodPost, "/members", `{"name":`, granted())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnauthenticatedRejected(t *testing.T) {
	f := newFixture(t, nil)

	rec := doRequest(f, http.MethodPost, "/members", `{"name":"Ada"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

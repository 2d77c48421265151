package approval

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

	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/shared"
)

func newHandlerFixture(t *testing.T) (*fixture, chi.Router) {
	t.Helper()
	f := newFixture(t)
	r := chi.NewRouter()
	NewHandler(nil, f.service).MountRoutes(r)
	return f, r
}

func asReviewer(req *http.Request) *http.Request {
	id := reviewer()
	return req.WithContext(shared.ContextWithIdentity(req.Context(), &id))
}

func submitPending(t *testing.T, f *fixture) PendingApproval {
	t.Helper()
	created, err := f.service.Submit(context.Background(), requester(), content.ModuleMembers,
		content.ActionCreate, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	return created
}

func TestListPendingApprovals(t *testing.T) {
	f, r := newHandlerFixture(t)
	submitPending(t, f)

	req := asReviewer(httptest.NewRequest(http.MethodGet, "/approvals?status=pending", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Approvals []struct {
			ID         int64   `json:"id"`
			Status     string  `json:"status"`
			ReviewedAt *string `json:"reviewedAt"`
		} `json:"approvals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Approvals, 1)
	assert.Equal(t, "pending", body.Approvals[0].Status)
	assert.Nil(t, body.Approvals[0].ReviewedAt, "unreviewed records carry no review timestamp")
}

func TestListUnknownStatus(t *testing.T) {
	_, r := newHandlerFixture(t)

	req := asReviewer(httptest.NewRequest(http.MethodGet, "/approvals?status=parked", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveEndpoint(t *testing.T) {
	f, r := newHandlerFixture(t)
	created := submitPending(t, f)

	req := asReviewer(httptest.NewRequest(http.MethodPost, "/approvals/1/approve", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Approval struct {
			Status             string `json:"status"`
			ReviewedByUsername string `json:"reviewedByUsername"`
		} `json:"approval"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "approved", body.Approval.Status)
	assert.Equal(t, "root", body.Approval.ReviewedByUsername)

	stored, err := f.repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
}

func TestApproveTwiceConflicts(t *testing.T) {
	f, r := newHandlerFixture(t)
	submitPending(t, f)

	for i := 0; i < 2; i++ {
		req := asReviewer(httptest.NewRequest(http.MethodPost, "/approvals/1/approve", nil))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusConflict, rec.Code)
	}
}

func TestApproveMissingApproval(t *testing.T) {
	_, r := newHandlerFixture(t)

	req := asReviewer(httptest.NewRequest(http.MethodPost, "/approvals/99/approve", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveInvalidID(t *testing.T) {
	_, r := newHandlerFixture(t)

	req := asReviewer(httptest.NewRequest(http.MethodPost, "/approvals/abc/approve", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectEndpoint(t *testing.T) {
	f, r := newHandlerFixture(t)
	submitPending(t, f)

	req := asReviewer(httptest.NewRequest(http.MethodPost, "/approvals/1/reject",
		strings.NewReader(`{"notes":"duplicate of an existing member"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.mutator.applied)
}

func TestRejectShortNotes(t *testing.T) {
	f, r := newHandlerFixture(t)
	submitPending(t, f)

	req := asReviewer(httptest.NewRequest(http.MethodPost, "/approvals/1/reject",
		strings.NewReader(`{"notes":"no"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndpointsRequireIdentity(t *testing.T) {
	_, r := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/approvals/1/approve", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryNoFilters(t *testing.T) {
	query, args := buildQuery(Filters{})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestBuildQuerySearchOnly(t *testing.T) {
	query, args := buildQuery(Filters{Search: "delete"})
	assert.Contains(t, query, "admin_username ILIKE $1")
	assert.Contains(t, query, "action_type ILIKE $1")
	assert.Contains(t, query, "details::text ILIKE $1")
	require.Len(t, args, 1)
	assert.Equal(t, "%delete%", args[0])
}

func TestBuildQueryAllFiltersNumberedInOrder(t *testing.T) {
	query, args := buildQuery(Filters{Search: "ada", Module: "members", AdminID: 7})
	assert.Contains(t, query, "ILIKE $1")
	assert.Contains(t, query, "module = $2")
	assert.Contains(t, query, "admin_id = $3")
	require.Len(t, args, 3)
	assert.Equal(t, "members", args[1])
	assert.Equal(t, int64(7), args[2])
}

func TestBuildQueryIgnoresWhitespaceFilters(t *testing.T) {
	query, args := buildQuery(Filters{Search: "   ", Module: "  "})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestBuildQueryIgnoresNonPositiveAdminID(t *testing.T) {
	_, args := buildQuery(Filters{AdminID: 0})
	assert.Empty(t, args)
}

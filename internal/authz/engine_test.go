package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/shared"
)

type stubSettings struct {
	required map[string]bool
	err      error
	calls    int
}

func (s *stubSettings) RequiresApproval(ctx context.Context, module content.Module, action content.Action) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.required[string(module)+"."+string(action)], nil
}

func activeAdmin(perms map[string]map[string]bool) *shared.Identity {
	return &shared.Identity{
		ID:          7,
		Username:    "clerk",
		Role:        "admin",
		IsActive:    true,
		Permissions: perms,
	}
}

func TestAuthorizeSuperAdminBypassesEverything(t *testing.T) {
	settings := &stubSettings{required: map[string]bool{"members.delete": true}}
	engine := NewEngine(settings)

	id := &shared.Identity{ID: 1, Username: "root", Role: "superadmin", IsSuperAdmin: true}

	d, err := engine.Authorize(context.Background(), id, content.ModuleMembers, content.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, EffectAllow, d.Effect)
	assert.Zero(t, settings.calls, "bypass must not consult settings")
}

func TestAuthorizeSuperAdminBypassWinsOverDeactivation(t *testing.T) {
	engine := NewEngine(&stubSettings{})

	id := &shared.Identity{ID: 1, Username: "root", IsSuperAdmin: true, IsActive: false}

	d, err := engine.Authorize(context.Background(), id, content.ModuleEvents, content.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, EffectAllow, d.Effect)
}

func TestAuthorizeDeactivatedAccountDenied(t *testing.T) {
	engine := NewEngine(&stubSettings{})

	id := activeAdmin(map[string]map[string]bool{"members": {"create": true}})
	id.IsActive = false

	d, err := engine.Authorize(context.Background(), id, content.ModuleMembers, content.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, d.Effect)
	assert.Equal(t, "account deactivated", d.Reason)
}

func TestAuthorizeMalformedMatrixFailsClosed(t *testing.T) {
	settings := &stubSettings{}
	engine := NewEngine(settings)

	id := activeAdmin(map[string]map[string]bool{"no_such_module": {"create": true}})

	d, err := engine.Authorize(context.Background(), id, content.ModuleMembers, content.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, d.Effect)
	assert.Equal(t, "invalid permission structure", d.Reason)
	assert.Zero(t, settings.calls)
}

func TestAuthorizeMissingGrantDenied(t *testing.T) {
	engine := NewEngine(&stubSettings{})

	id := activeAdmin(map[string]map[string]bool{"members": {"create": true}})

	d, err := engine.Authorize(context.Background(), id, content.ModuleMembers, content.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, d.Effect)
	assert.Contains(t, d.Reason, "members.delete")
}

func TestAuthorizeNilMatrixDenied(t *testing.T) {
	engine := NewEngine(&stubSettings{})

	d, err := engine.Authorize(context.Background(), activeAdmin(nil), content.ModuleMembers, content.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, d.Effect)
}

func TestAuthorizeDefersWhenApprovalRequired(t *testing.T) {
	settings := &stubSettings{required: map[string]bool{"events.delete": true}}
	engine := NewEngine(settings)

	id := activeAdmin(map[string]map[string]bool{"events": {"delete": true}})

	d, err := engine.Authorize(context.Background(), id, content.ModuleEvents, content.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, EffectDefer, d.Effect)
}

func TestAuthorizeAllowsWhenGrantedAndNotGated(t *testing.T) {
	engine := NewEngine(&stubSettings{})

	id := activeAdmin(map[string]map[string]bool{"events": {"edit": true}})

	d, err := engine.Authorize(context.Background(), id, content.ModuleEvents, content.ActionEdit)
	require.NoError(t, err)
	assert.Equal(t, EffectAllow, d.Effect)
}

func TestAuthorizeSettingsErrorPropagates(t *testing.T) {
	boom := errors.New("redis and postgres both down")
	engine := NewEngine(&stubSettings{err: boom})

	id := activeAdmin(map[string]map[string]bool{"members": {"create": true}})

	_, err := engine.Authorize(context.Background(), id, content.ModuleMembers, content.ActionCreate)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestAuthorizeNilIdentityUnauthenticated(t *testing.T) {
	engine := NewEngine(&stubSettings{})

	_, err := engine.Authorize(context.Background(), nil, content.ModuleMembers, content.ActionCreate)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}


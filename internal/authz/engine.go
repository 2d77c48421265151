package authz

import (
	"context"
	"fmt"

	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Effect is the outcome of an authorization decision.
type Effect string

// Decision outcomes.
const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
	EffectDefer Effect = "defer"
)

// Decision is the result of evaluating an identity against a module/action.
type Decision struct {
	Effect Effect
	Reason string
}

// SettingsSource reports whether a module requires supervised approval for an
// action.
type SettingsSource interface {
	RequiresApproval(ctx context.Context, module content.Module, action content.Action) (bool, error)
}

// Engine evaluates the permission matrix and approval settings.
type Engine struct {
	settings SettingsSource
}

// NewEngine constructs an Engine.
func NewEngine(settings SettingsSource) *Engine {
	return &Engine{settings: settings}
}

// Authorize evaluates the decision table. The order is load-bearing: the
// super-admin bypass runs before the active and matrix checks so a super-admin
// is never locked out by a stale or malformed matrix.
func (e *Engine) Authorize(ctx context.Context, id *shared.Identity, module content.Module, action content.Action) (Decision, error) {
	if id == nil {
		return Decision{}, shared.ErrUnauthenticated
	}
	if id.IsSuperAdmin {
		return Decision{Effect: EffectAllow}, nil
	}
	if !id.IsActive {
		return Decision{Effect: EffectDeny, Reason: "account deactivated"}, nil
	}
	matrix, err := NormalizeMatrix(id.Permissions)
	if err != nil {
		// Fail closed, never open, on malformed data.
		return Decision{Effect: EffectDeny, Reason: "invalid permission structure"}, nil
	}
	if !matrix[string(module)][string(action)] {
		return Decision{Effect: EffectDeny, Reason: fmt.Sprintf("missing permission for %s.%s", module, action)}, nil
	}
	required, err := e.settings.RequiresApproval(ctx, module, action)
	if err != nil {
		return Decision{}, fmt.Errorf("authz: read approval setting: %w", err)
	}
	if required {
		return Decision{Effect: EffectDefer}, nil
	}
	return Decision{Effect: EffectAllow}, nil
}

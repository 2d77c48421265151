package content

import (
	"context"
	"fmt"

	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Mutator performs the literal mutations for one module. Implementations
// receive a db.Querier so the same code runs against the pool (direct writes)
// and against the approve transaction (replay).
type Mutator interface {
	Create(ctx context.Context, q db.Querier, data map[string]any) (string, error)
	Edit(ctx context.Context, q db.Querier, id string, data map[string]any) error
	Delete(ctx context.Context, q db.Querier, id string) error
}

// Registry maps modules to their mutators. Lookups for unregistered modules
// fail closed with ErrUnsupportedApprovalAction.
type Registry struct {
	mutators map[Module]Mutator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mutators: make(map[Module]Mutator)}
}

// Register binds a mutator to a module.
func (r *Registry) Register(m Module, mut Mutator) {
	r.mutators[m] = mut
}

// Lookup resolves the mutator for a module.
func (r *Registry) Lookup(m Module) (Mutator, error) {
	mut, ok := r.mutators[m]
	if !ok {
		return nil, fmt.Errorf("content: module %q: %w", m, shared.ErrUnsupportedApprovalAction)
	}
	return mut, nil
}

// Apply dispatches one mutation. It returns the id of the affected item; for
// create that is the newly assigned id, otherwise the id passed in.
func (r *Registry) Apply(ctx context.Context, q db.Querier, m Module, a Action, itemID string, data map[string]any) (string, error) {
	mut, err := r.Lookup(m)
	if err != nil {
		return "", err
	}
	switch a {
	case ActionCreate:
		return mut.Create(ctx, q, data)
	case ActionEdit:
		if itemID == "" {
			return "", fmt.Errorf("content: edit requires item id: %w", shared.ErrValidation)
		}
		return itemID, mut.Edit(ctx, q, itemID, data)
	case ActionDelete:
		if itemID == "" {
			return "", fmt.Errorf("content: delete requires item id: %w", shared.ErrValidation)
		}
		return itemID, mut.Delete(ctx, q, itemID)
	default:
		return "", fmt.Errorf("content: action %q: %w", a, shared.ErrUnsupportedApprovalAction)
	}
}

// NewDefaultRegistry wires mutators for every club module.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ModuleMembers, NewMemberMutator())
	r.Register(ModuleEvents, NewEventMutator())
	r.Register(ModuleProjects, NewDocumentMutator("projects"))
	r.Register(ModuleAnnouncements, NewDocumentMutator("announcements"))
	r.Register(ModuleGallery, NewDocumentMutator("gallery_items"))
	r.Register(ModuleApplications, NewDocumentMutator("applications"))
	return r
}

package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Setting is the per-module approval requirement record.
type Setting struct {
	Module        content.Module
	ApproveCreate bool
	ApproveEdit   bool
	ApproveDelete bool
}

// Requires reports whether the given action needs supervised approval.
func (s Setting) Requires(a content.Action) bool {
	switch a {
	case content.ActionCreate:
		return s.ApproveCreate
	case content.ActionEdit:
		return s.ApproveEdit
	case content.ActionDelete:
		return s.ApproveDelete
	}
	return false
}

// SettingsRepository persists module approval settings.
type SettingsRepository interface {
	Get(ctx context.Context, module content.Module) (Setting, error)
	List(ctx context.Context) ([]Setting, error)
	Upsert(ctx context.Context, s Setting) error
}

// PGSettingsRepository implements SettingsRepository on PostgreSQL.
type PGSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository constructs a PostgreSQL settings repository.
func NewSettingsRepository(pool *pgxpool.Pool) *PGSettingsRepository {
	return &PGSettingsRepository{pool: pool}
}

// Get returns the setting for one module. A module without a row approves
// nothing.
func (r *PGSettingsRepository) Get(ctx context.Context, module content.Module) (Setting, error) {
	s := Setting{Module: module}
	err := r.pool.QueryRow(ctx,
		`SELECT approve_create, approve_edit, approve_delete FROM module_settings WHERE module = $1`,
		string(module)).Scan(&s.ApproveCreate, &s.ApproveEdit, &s.ApproveDelete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Setting{Module: module}, nil
		}
		return Setting{}, fmt.Errorf("authz: get setting: %w", err)
	}
	return s, nil
}

// List returns settings for every known module, defaults filled in.
func (r *PGSettingsRepository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT module, approve_create, approve_edit, approve_delete FROM module_settings`)
	if err != nil {
		return nil, fmt.Errorf("authz: list settings: %w", err)
	}
	defer rows.Close()
	byModule := make(map[content.Module]Setting)
	for rows.Next() {
		var s Setting
		var module string
		if err := rows.Scan(&module, &s.ApproveCreate, &s.ApproveEdit, &s.ApproveDelete); err != nil {
			return nil, err
		}
		s.Module = content.Module(module)
		byModule[s.Module] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	settings := make([]Setting, 0, len(content.Modules()))
	for _, module := range content.Modules() {
		if s, ok := byModule[module]; ok {
			settings = append(settings, s)
			continue
		}
		settings = append(settings, Setting{Module: module})
	}
	return settings, nil
}

// Upsert writes the setting for one module.
func (r *PGSettingsRepository) Upsert(ctx context.Context, s Setting) error {
	if _, ok := content.ParseModule(string(s.Module)); !ok {
		return fmt.Errorf("authz: unknown module %q: %w", s.Module, shared.ErrValidation)
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO module_settings (module, approve_create, approve_edit, approve_delete, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (module) DO UPDATE SET
approve_create = EXCLUDED.approve_create,
approve_edit = EXCLUDED.approve_edit,
approve_delete = EXCLUDED.approve_delete,
updated_at = NOW()`,
		string(s.Module), s.ApproveCreate, s.ApproveEdit, s.ApproveDelete)
	if err != nil {
		return fmt.Errorf("authz: upsert setting: %w", err)
	}
	return nil
}

var _ SettingsRepository = (*PGSettingsRepository)(nil)

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubdesk/clubdesk/internal/authz"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Repository defines persistence operations for admin accounts.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	Get(ctx context.Context, id int64) (*Admin, error)
	List(ctx context.Context) ([]Admin, error)
	Create(ctx context.Context, admin Admin) (*Admin, error)
	UpdatePermissions(ctx context.Context, id int64, permissions map[string]map[string]bool) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const adminColumns = `id, username, password_hash, role, is_super_admin, permissions, is_active, created_at, updated_at`

func scanAdmin(row pgx.Row) (*Admin, error) {
	var admin Admin
	var permissions []byte
	err := row.Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.Role,
		&admin.IsSuperAdmin, &permissions, &admin.IsActive, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// Malformed stored matrices stay nil; the permission engine fails closed.
	if matrix, err := authz.NormalizeMatrix(permissions); err == nil {
		admin.Permissions = matrix
	}
	return &admin, nil
}

// FindByUsername fetches an admin by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE username = $1`, username))
}

// Get fetches an admin by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id))
}

// List returns all admins ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Admin, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var admins []Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *admin)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return admins, nil
}

// Create inserts a new admin account.
func (r *PGRepository) Create(ctx context.Context, admin Admin) (*Admin, error) {
	permissions, err := json.Marshal(admin.Permissions)
	if err != nil {
		return nil, fmt.Errorf("identity: encode permissions: %w", err)
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO admins (username, password_hash, role, is_super_admin, permissions, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING `+adminColumns,
		admin.Username, admin.PasswordHash, admin.Role, admin.IsSuperAdmin, permissions, admin.IsActive)
	created, err := scanAdmin(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("identity: username taken: %w", shared.ErrValidation)
		}
		return nil, err
	}
	return created, nil
}

// UpdatePermissions replaces an admin's permission matrix.
func (r *PGRepository) UpdatePermissions(ctx context.Context, id int64, permissions map[string]map[string]bool) error {
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("identity: encode permissions: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET permissions = $2, updated_at = NOW() WHERE id = $1`, id, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive flips the active flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)

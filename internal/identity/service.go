package identity

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/clubdesk/clubdesk/internal/authz"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Service wraps admin account business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates username/password credentials. Inactive accounts are
// rejected here too so no token is ever issued for them.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Admin, error) {
	admin, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return admin, nil
}

// Reauthenticate re-checks the password for an already-authenticated admin
// and asserts the stored super-admin flag. Used by the elevation step; the
// current database state, not the token snapshot, decides eligibility here.
func (s *Service) Reauthenticate(ctx context.Context, adminID int64, password string) (*Admin, error) {
	admin, err := s.repo.Get(ctx, adminID)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !admin.IsSuperAdmin && !strings.EqualFold(admin.Role, RoleSuperAdmin) {
		return nil, fmt.Errorf("identity: super-admin elevation refused: %w", shared.ErrForbidden)
	}
	return admin, nil
}

// CreateAdminInput describes a new admin account.
type CreateAdminInput struct {
	Username    string
	Password    string
	Role        string
	Permissions map[string]map[string]bool
}

// CreateAdmin registers an account. Only super-admin endpoints reach this.
func (s *Service) CreateAdmin(ctx context.Context, input CreateAdminInput) (*Admin, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || len(input.Password) < 8 {
		return nil, fmt.Errorf("identity: username and password (min 8) required: %w", shared.ErrValidation)
	}
	if !ValidRole(input.Role) {
		return nil, fmt.Errorf("identity: unknown role %q: %w", input.Role, shared.ErrValidation)
	}
	permissions := input.Permissions
	if permissions == nil {
		permissions = authz.EmptyMatrix()
	}
	if _, err := authz.NormalizeMatrix(permissions); err != nil {
		return nil, fmt.Errorf("identity: %v: %w", err, shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}
	return s.repo.Create(ctx, Admin{
		Username:     username,
		PasswordHash: string(hash),
		Role:         input.Role,
		IsSuperAdmin: strings.EqualFold(input.Role, RoleSuperAdmin),
		Permissions:  permissions,
		IsActive:     true,
	})
}

// SetPermissions replaces an admin's matrix after validating its shape.
func (s *Service) SetPermissions(ctx context.Context, adminID int64, permissions map[string]map[string]bool) error {
	if _, err := authz.NormalizeMatrix(permissions); err != nil {
		return fmt.Errorf("identity: %v: %w", err, shared.ErrValidation)
	}
	return s.repo.UpdatePermissions(ctx, adminID, permissions)
}

// SetActive flips the active flag. Deactivation does not revoke outstanding
// tokens; their snapshot carries the old flag until expiry.
func (s *Service) SetActive(ctx context.Context, adminID int64, active bool) error {
	return s.repo.SetActive(ctx, adminID, active)
}

// List returns all admin accounts.
func (s *Service) List(ctx context.Context) ([]Admin, error) {
	return s.repo.List(ctx)
}

// IdentityOf converts an admin record to the identity embedded in tokens.
func IdentityOf(admin *Admin) shared.Identity {
	return shared.Identity{
		ID:           admin.ID,
		Username:     admin.Username,
		Role:         admin.Role,
		IsSuperAdmin: admin.IsSuperAdmin || strings.EqualFold(admin.Role, RoleSuperAdmin),
		IsActive:     admin.IsActive,
		Permissions:  admin.Permissions,
	}
}

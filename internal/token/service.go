// Package token issues and verifies the signed bearer tokens carrying an
// identity and its permission snapshot. There is no refresh or server-side
// revocation: re-authentication is the only path to a new token, and a
// snapshot stays authoritative until expiry.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clubdesk/clubdesk/internal/authz"
	"github.com/clubdesk/clubdesk/internal/shared"
)

var (
	// ErrExpired indicates the token is past its expiry.
	ErrExpired = fmt.Errorf("token expired: %w", shared.ErrUnauthenticated)
	// ErrMalformed indicates a bad signature or structure.
	ErrMalformed = fmt.Errorf("token malformed: %w", shared.ErrUnauthenticated)
)

// RoleSuperAdmin is the role name whose holders are super-admins regardless
// of the embedded flag.
const RoleSuperAdmin = "superadmin"

// Config carries the signing secret and lifetimes, injected at construction.
type Config struct {
	Secret      []byte
	TTL         time.Duration
	ElevatedTTL time.Duration
}

// Service signs and verifies identity tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, now: time.Now}
}

// Claims is the JWT payload. Permissions is typed loosely because legacy
// issuers serialised the matrix as a JSON string; Verify normalises it.
type Claims struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	SuperAdmin  bool   `json:"superAdmin"`
	Active      bool   `json:"active"`
	Permissions any    `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for the identity with the default TTL.
func (s *Service) Issue(id shared.Identity) (string, error) {
	return s.issue(id, s.cfg.TTL)
}

// IssueElevated signs a short-lived token for a super-admin elevation step.
func (s *Service) IssueElevated(id shared.Identity) (string, error) {
	id.IsSuperAdmin = true
	return s.issue(id, s.cfg.ElevatedTTL)
}

func (s *Service) issue(id shared.Identity, ttl time.Duration) (string, error) {
	if len(s.cfg.Secret) == 0 {
		return "", errors.New("token: signing secret not configured")
	}
	now := s.now().UTC()
	claims := Claims{
		Username:    id.Username,
		Role:        id.Role,
		SuperAdmin:  id.IsSuperAdmin,
		Active:      id.IsActive,
		Permissions: id.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify decodes a token into an identity. Expiry is enforced here; the
// super-admin flag is normalised to true when either the role says
// "superadmin" or the embedded flag is set, so either signal may carry the
// truth. A permission matrix that fails normalisation is left nil and the
// permission engine fails closed on it.
func (s *Service) Verify(raw string) (shared.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Identity{}, ErrExpired
		}
		return shared.Identity{}, ErrMalformed
	}

	adminID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return shared.Identity{}, ErrMalformed
	}

	id := shared.Identity{
		ID:           adminID,
		Username:     claims.Username,
		Role:         claims.Role,
		IsSuperAdmin: claims.SuperAdmin || strings.EqualFold(claims.Role, RoleSuperAdmin),
		IsActive:     claims.Active,
	}
	if matrix, err := authz.NormalizeMatrix(claims.Permissions); err == nil {
		id.Permissions = matrix
	}
	return id, nil
}

package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// MemberMutator persists club member records.
type MemberMutator struct{}

// NewMemberMutator constructs a MemberMutator.
func NewMemberMutator() *MemberMutator {
	return &MemberMutator{}
}

// Create inserts a member row from the submitted fields.
func (MemberMutator) Create(ctx context.Context, q db.Querier, data map[string]any) (string, error) {
	name := stringField(data, "name")
	if name == "" {
		return "", fmt.Errorf("content: member name required: %w", shared.ErrValidation)
	}
	id := uuid.NewString()
	_, err := q.Exec(ctx, `INSERT INTO members (id, name, department, member_role, bio, photo_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		id, name, stringField(data, "department"), stringField(data, "role"),
		stringField(data, "bio"), stringField(data, "photoUrl"))
	if err != nil {
		return "", fmt.Errorf("content: create member: %w", err)
	}
	return id, nil
}

// Edit updates the fields present in data, leaving the rest untouched.
func (MemberMutator) Edit(ctx context.Context, q db.Querier, id string, data map[string]any) error {
	tag, err := q.Exec(ctx, `UPDATE members SET
name = COALESCE($2, name),
department = COALESCE($3, department),
member_role = COALESCE($4, member_role),
bio = COALESCE($5, bio),
photo_url = COALESCE($6, photo_url),
updated_at = NOW()
WHERE id = $1`,
		id, optionalField(data, "name"), optionalField(data, "department"),
		optionalField(data, "role"), optionalField(data, "bio"), optionalField(data, "photoUrl"))
	if err != nil {
		return fmt.Errorf("content: edit member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content: member %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

// Delete removes a member row.
func (MemberMutator) Delete(ctx context.Context, q db.Querier, id string) error {
	tag, err := q.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("content: delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content: member %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return strings.TrimSpace(v)
}

// optionalField returns nil when the key is absent so COALESCE keeps the
// stored value, distinguishing "not provided" from "set to empty".
func optionalField(data map[string]any, key string) *string {
	raw, ok := data[key]
	if !ok {
		return nil
	}
	v, _ := raw.(string)
	v = strings.TrimSpace(v)
	return &v
}

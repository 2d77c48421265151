package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// DocumentMutator stores a module's items as jsonb documents. Projects,
// announcements, gallery items and applications carry loosely structured
// fields, so they share this mutator parameterised by table name.
type DocumentMutator struct {
	table string
}

// NewDocumentMutator constructs a DocumentMutator for the given table.
func NewDocumentMutator(table string) *DocumentMutator {
	return &DocumentMutator{table: table}
}

// Create inserts a document row.
func (m *DocumentMutator) Create(ctx context.Context, q db.Querier, data map[string]any) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("content: %s payload required: %w", m.table, shared.ErrValidation)
	}
	doc, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("content: encode %s payload: %w", m.table, err)
	}
	id := uuid.NewString()
	_, err = q.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, data, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())`, m.table),
		id, doc)
	if err != nil {
		return "", fmt.Errorf("content: create %s: %w", m.table, err)
	}
	return id, nil
}

// Edit merges the submitted fields into the stored document.
func (m *DocumentMutator) Edit(ctx context.Context, q db.Querier, id string, data map[string]any) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("content: encode %s payload: %w", m.table, err)
	}
	tag, err := q.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET data = data || $2::jsonb, updated_at = NOW() WHERE id = $1`, m.table),
		id, doc)
	if err != nil {
		return fmt.Errorf("content: edit %s: %w", m.table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content: %s %s: %w", m.table, id, shared.ErrNotFound)
	}
	return nil
}

// Delete removes a document row.
func (m *DocumentMutator) Delete(ctx context.Context, q db.Querier, id string) error {
	tag, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, m.table), id)
	if err != nil {
		return fmt.Errorf("content: delete %s: %w", m.table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content: %s %s: %w", m.table, id, shared.ErrNotFound)
	}
	return nil
}

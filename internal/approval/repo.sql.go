package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Insert(ctx context.Context, p PendingApproval) (PendingApproval, error)
	Get(ctx context.Context, id int64) (PendingApproval, error)
	List(ctx context.Context, status *Status) ([]PendingApproval, error)
}

// TxRepository exposes the operations available inside the resolve
// transaction. Querier hands the same transaction to the content registry and
// the audit recorder so mutation, status change and audit row commit together.
type TxRepository interface {
	Querier() db.Querier
	GetForUpdate(ctx context.Context, id int64) (PendingApproval, error)
	MarkApproved(ctx context.Context, id, reviewerID int64, reviewerUsername string, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id, reviewerID int64, reviewerUsername, notes string, at time.Time) (bool, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("approval: begin tx: %w", err)
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const approvalColumns = `id, requested_by, requested_by_username, module, action_type, item_data, status,
COALESCE(reviewed_by, 0), COALESCE(reviewed_by_username, ''), COALESCE(reviewed_at, 'epoch'::timestamptz), review_notes, created_at`

func scanApproval(row pgx.Row) (PendingApproval, error) {
	var p PendingApproval
	var module, action, status string
	var itemData []byte
	err := row.Scan(&p.ID, &p.RequestedBy, &p.RequestedByUsername, &module, &action, &itemData,
		&status, &p.ReviewedBy, &p.ReviewedByUsername, &p.ReviewedAt, &p.ReviewNotes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PendingApproval{}, shared.ErrNotFound
		}
		return PendingApproval{}, err
	}
	p.Module = content.Module(module)
	p.ActionType = content.Action(action)
	p.Status = Status(status)
	if len(itemData) > 0 {
		if err := json.Unmarshal(itemData, &p.ItemData); err != nil {
			return PendingApproval{}, fmt.Errorf("approval: decode item data: %w", err)
		}
	}
	return p, nil
}

// Insert persists a new pending record.
func (r *Repository) Insert(ctx context.Context, p PendingApproval) (PendingApproval, error) {
	itemData, err := json.Marshal(p.ItemData)
	if err != nil {
		return PendingApproval{}, fmt.Errorf("approval: encode item data: %w", err)
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO pending_approvals (requested_by, requested_by_username, module, action_type, item_data, status, review_notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, '', NOW())
RETURNING `+approvalColumns,
		p.RequestedBy, p.RequestedByUsername, string(p.Module), string(p.ActionType), itemData, string(StatusPending))
	return scanApproval(row)
}

// Get fetches one record.
func (r *Repository) Get(ctx context.Context, id int64) (PendingApproval, error) {
	return scanApproval(r.pool.QueryRow(ctx,
		`SELECT `+approvalColumns+` FROM pending_approvals WHERE id = $1`, id))
}

// List returns records newest-first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *Status) ([]PendingApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM pending_approvals`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var approvals []PendingApproval
	for rows.Next() {
		p, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return approvals, nil
}

func (t *txRepo) Querier() db.Querier {
	return t.tx
}

// GetForUpdate locks the row for the rest of the transaction, serialising
// concurrent resolvers.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (PendingApproval, error) {
	return scanApproval(t.tx.QueryRow(ctx,
		`SELECT `+approvalColumns+` FROM pending_approvals WHERE id = $1 FOR UPDATE`, id))
}

// MarkApproved resolves the record, guarded on pending status. Returns false
// when another resolver won the race.
func (t *txRepo) MarkApproved(ctx context.Context, id, reviewerID int64, reviewerUsername string, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE pending_approvals
SET status = $2, reviewed_by = $3, reviewed_by_username = $4, reviewed_at = $5
WHERE id = $1 AND status = $6`,
		id, string(StatusApproved), reviewerID, reviewerUsername, at, string(StatusPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkRejected resolves the record with notes, guarded on pending status.
func (t *txRepo) MarkRejected(ctx context.Context, id, reviewerID int64, reviewerUsername, notes string, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE pending_approvals
SET status = $2, reviewed_by = $3, reviewed_by_username = $4, reviewed_at = $5, review_notes = $6
WHERE id = $1 AND status = $7`,
		id, string(StatusRejected), reviewerID, reviewerUsername, at, notes, string(StatusPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var _ RepositoryPort = (*Repository)(nil)

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubdesk/clubdesk/internal/platform/db"
)

// Recorder writes entries into audit_logs.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{pool: pool, logger: logger}
}

// Record persists the entry best-effort: a failed audit write is logged
// locally and never aborts the operation it describes.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.pool == nil {
		return
	}
	if err := insertEntry(ctx, r.pool, entry); err != nil {
		r.logger.Error("record audit entry",
			slog.String("action", entry.ActionType),
			slog.String("module", entry.Module),
			slog.Any("error", err))
	}
}

// RecordTx persists the entry through the caller's transaction. Used when an
// audit row must commit or roll back together with the mutation it describes,
// as in approval resolution.
func (r *Recorder) RecordTx(ctx context.Context, q db.Querier, entry Entry) error {
	return insertEntry(ctx, q, entry)
}

func insertEntry(ctx context.Context, q db.Querier, entry Entry) error {
	if entry.ActionType == "" || entry.Module == "" {
		return fmt.Errorf("audit: entry requires action and module")
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("audit: encode details: %w", err)
	}
	status := entry.Status
	if status == "" {
		status = StatusSuccess
	}
	var itemID *string
	if entry.ItemID != "" {
		itemID = &entry.ItemID
	}
	_, err = q.Exec(ctx, `INSERT INTO audit_logs (admin_id, admin_username, action_type, module, item_id, details, ip_address, user_agent, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		entry.AdminID, entry.AdminUsername, entry.ActionType, entry.Module, itemID,
		details, entry.IPAddress, entry.UserAgent, status)
	return err
}

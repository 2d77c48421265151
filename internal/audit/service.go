package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubdesk/clubdesk/internal/shared"
)

// exportRowLimit bounds full CSV exports.
const exportRowLimit = 10_000

// Service reads the audit log.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs an audit query service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Query returns entries newest-first with optional filters.
func (s *Service) Query(ctx context.Context, filters Filters, page shared.Pagination) ([]Entry, error) {
	query, args := buildQuery(filters)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)
	return s.scanEntries(ctx, query, args)
}

// Export writes entries as CSV newest-first, bounded by exportRowLimit.
func (s *Service) Export(ctx context.Context, w io.Writer, filters Filters) error {
	query, args := buildQuery(filters)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, exportRowLimit)
	entries, err := s.scanEntries(ctx, query, args)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"ID", "Admin", "Action", "Module", "Item", "Details", "IP", "User Agent", "Status", "At"}); err != nil {
		return err
	}
	for _, entry := range entries {
		details, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		record := []string{
			strconv.FormatInt(entry.ID, 10),
			entry.AdminUsername,
			entry.ActionType,
			entry.Module,
			entry.ItemID,
			string(details),
			entry.IPAddress,
			entry.UserAgent,
			entry.Status,
			entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func buildQuery(filters Filters) (string, []any) {
	query := `SELECT id, admin_id, admin_username, action_type, module, item_id, details, ip_address, user_agent, status, created_at
FROM audit_logs`
	var conditions []string
	var args []any
	if search := strings.TrimSpace(filters.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(admin_username ILIKE $"+n+" OR action_type ILIKE $"+n+" OR details::text ILIKE $"+n+")")
	}
	if module := strings.TrimSpace(filters.Module); module != "" {
		args = append(args, module)
		conditions = append(conditions, "module = $"+strconv.Itoa(len(args)))
	}
	if filters.AdminID > 0 {
		args = append(args, filters.AdminID)
		conditions = append(conditions, "admin_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	return query, args
}

func (s *Service) scanEntries(ctx context.Context, query string, args []any) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var itemID *string
		var details []byte
		if err := rows.Scan(&entry.ID, &entry.AdminID, &entry.AdminUsername, &entry.ActionType,
			&entry.Module, &itemID, &details, &entry.IPAddress, &entry.UserAgent,
			&entry.Status, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if itemID != nil {
			entry.ItemID = *itemID
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &entry.Details)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

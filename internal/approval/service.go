package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clubdesk/clubdesk/internal/audit"
	"github.com/clubdesk/clubdesk/internal/content"
	"github.com/clubdesk/clubdesk/internal/notify"
	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// Reject reasons are member-facing, so a bare "no" is not enough.
const minReviewNotesLen = 10

// AuditPort records audit entries, best-effort outside transactions and
// strictly inside them.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry)
	RecordTx(ctx context.Context, q db.Querier, entry audit.Entry) error
}

// EventSink queues approval lifecycle notifications.
type EventSink interface {
	Enqueue(ctx context.Context, event notify.Event)
}

// Service orchestrates the supervised-approval workflow.
type Service struct {
	repo     RepositoryPort
	registry *content.Registry
	audit    AuditPort
	events   EventSink
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the approval service.
func NewService(repo RepositoryPort, registry *content.Registry, auditPort AuditPort, events EventSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, registry: registry, audit: auditPort, events: events, logger: logger, now: time.Now}
}

// Submit records a deferred mutation as pending. It never performs the
// mutation itself. Edit and delete payloads must carry the target id; that is
// a data-entry error to reject here, not at approval time.
func (s *Service) Submit(ctx context.Context, requester shared.Identity, module content.Module, action content.Action, itemData map[string]any) (PendingApproval, error) {
	if action != content.ActionCreate {
		id, _ := itemData["id"].(string)
		if strings.TrimSpace(id) == "" {
			return PendingApproval{}, fmt.Errorf("approval: %s requires item id in payload: %w", action, shared.ErrValidation)
		}
	}
	if len(itemData) == 0 {
		return PendingApproval{}, fmt.Errorf("approval: item data required: %w", shared.ErrValidation)
	}
	created, err := s.repo.Insert(ctx, PendingApproval{
		RequestedBy:         requester.ID,
		RequestedByUsername: requester.Username,
		Module:              module,
		ActionType:          action,
		ItemData:            itemData,
	})
	if err != nil {
		return PendingApproval{}, err
	}

	meta := shared.RequestMetaFromContext(ctx)
	s.audit.Record(ctx, audit.Entry{
		AdminID:       requester.ID,
		AdminUsername: requester.Username,
		ActionType:    "approval_submit",
		Module:        string(module),
		ItemID:        created.ItemID(),
		Details:       map[string]any{"approvalId": created.ID, "action": string(action)},
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Status:        audit.StatusSuccess,
	})
	if s.events != nil {
		s.events.Enqueue(ctx, notify.Event{
			Kind:       notify.KindSubmitted,
			ApprovalID: created.ID,
			Module:     string(module),
			Action:     string(action),
			Actor:      requester.Username,
		})
	}
	return created, nil
}

// List returns approvals newest-first, optionally filtered by status.
func (s *Service) List(ctx context.Context, statusFilter string) ([]PendingApproval, error) {
	var status *Status
	if statusFilter != "" {
		parsed, ok := ParseStatus(statusFilter)
		if !ok {
			return nil, fmt.Errorf("approval: unknown status %q: %w", statusFilter, shared.ErrValidation)
		}
		status = &parsed
	}
	return s.repo.List(ctx, status)
}

// Approve replays the deferred mutation and resolves the record, all inside
// one transaction: the row lock plus the pending guard make concurrent
// resolvers lose with ErrAlreadyProcessed, and a failed dispatch rolls
// everything back leaving the record pending and retriable.
func (s *Service) Approve(ctx context.Context, approvalID int64, reviewer shared.Identity) (PendingApproval, error) {
	var resolved PendingApproval
	meta := shared.RequestMetaFromContext(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetForUpdate(ctx, approvalID)
		if err != nil {
			return err
		}
		if p.Status != StatusPending {
			return fmt.Errorf("approval %d is %s: %w", p.ID, p.Status, shared.ErrAlreadyProcessed)
		}

		itemID, err := s.registry.Apply(ctx, tx.Querier(), p.Module, p.ActionType, p.ItemID(), p.ItemData)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		updated, err := tx.MarkApproved(ctx, p.ID, reviewer.ID, reviewer.Username, now)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("approval %d: %w", p.ID, shared.ErrAlreadyProcessed)
		}

		if err := s.audit.RecordTx(ctx, tx.Querier(), audit.Entry{
			AdminID:       reviewer.ID,
			AdminUsername: reviewer.Username,
			ActionType:    "approval_approve",
			Module:        string(p.Module),
			ItemID:        itemID,
			Details:       map[string]any{"approvalId": p.ID, "action": string(p.ActionType), "requestedBy": p.RequestedByUsername},
			IPAddress:     meta.IPAddress,
			UserAgent:     meta.UserAgent,
			Status:        audit.StatusSuccess,
		}); err != nil {
			return fmt.Errorf("approval: audit approve: %w", err)
		}

		resolved = p
		resolved.Status = StatusApproved
		resolved.ReviewedBy = reviewer.ID
		resolved.ReviewedByUsername = reviewer.Username
		resolved.ReviewedAt = now
		return nil
	})
	if err != nil {
		return PendingApproval{}, err
	}

	if s.events != nil {
		s.events.Enqueue(ctx, notify.Event{
			Kind:       notify.KindApproved,
			ApprovalID: resolved.ID,
			Module:     string(resolved.Module),
			Action:     string(resolved.ActionType),
			Actor:      reviewer.Username,
		})
	}
	return resolved, nil
}

// Reject resolves the record without side effects. The guarded update makes
// the loser of a concurrent race observe ErrAlreadyProcessed.
func (s *Service) Reject(ctx context.Context, approvalID int64, reviewer shared.Identity, notes string) (PendingApproval, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) < minReviewNotesLen {
		return PendingApproval{}, fmt.Errorf("approval: review notes must be at least %d characters: %w", minReviewNotesLen, shared.ErrValidation)
	}

	var resolved PendingApproval
	meta := shared.RequestMetaFromContext(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetForUpdate(ctx, approvalID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		updated, err := tx.MarkRejected(ctx, p.ID, reviewer.ID, reviewer.Username, notes, now)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("approval %d is %s: %w", p.ID, p.Status, shared.ErrAlreadyProcessed)
		}

		if err := s.audit.RecordTx(ctx, tx.Querier(), audit.Entry{
			AdminID:       reviewer.ID,
			AdminUsername: reviewer.Username,
			ActionType:    "approval_reject",
			Module:        string(p.Module),
			ItemID:        p.ItemID(),
			Details:       map[string]any{"approvalId": p.ID, "action": string(p.ActionType), "notes": notes},
			IPAddress:     meta.IPAddress,
			UserAgent:     meta.UserAgent,
			Status:        audit.StatusSuccess,
		}); err != nil {
			return fmt.Errorf("approval: audit reject: %w", err)
		}

		resolved = p
		resolved.Status = StatusRejected
		resolved.ReviewedBy = reviewer.ID
		resolved.ReviewedByUsername = reviewer.Username
		resolved.ReviewedAt = now
		resolved.ReviewNotes = notes
		return nil
	})
	if err != nil {
		return PendingApproval{}, err
	}

	if s.events != nil {
		s.events.Enqueue(ctx, notify.Event{
			Kind:       notify.KindRejected,
			ApprovalID: resolved.ID,
			Module:     string(resolved.Module),
			Action:     string(resolved.ActionType),
			Actor:      reviewer.Username,
			Notes:      notes,
		})
	}
	return resolved, nil
}

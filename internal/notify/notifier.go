// Package notify bridges approval lifecycle events to the external
// notification channel. Delivery itself (mail, chat, push) is not part of
// this service; implementations of Notifier call out to it.
package notify

import (
	"context"
	"log/slog"
)

// Event describes an approval lifecycle change worth telling someone about.
type Event struct {
	Kind       string `json:"kind"` // submitted | approved | rejected
	ApprovalID int64  `json:"approvalId"`
	Module     string `json:"module"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
	Notes      string `json:"notes,omitempty"`
}

// Event kinds.
const (
	KindSubmitted = "submitted"
	KindApproved  = "approved"
	KindRejected  = "rejected"
)

// Notifier delivers an event to the external channel.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier is the default Notifier: it writes the event to the log. Used
// until a real channel is configured, and in tests.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, event Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("approval notification",
		slog.String("kind", event.Kind),
		slog.Int64("approval_id", event.ApprovalID),
		slog.String("module", event.Module),
		slog.String("action", event.Action),
		slog.String("actor", event.Actor))
	return nil
}
